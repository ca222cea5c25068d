package errors

var (
	ErrEmptyQuestion      = BadRequest("question cannot be empty")
	ErrInvalidChatID      = BadRequest("invalid chat id")
	ErrNotAnImage         = BadRequest("file must be an image")
	ErrEmptyUpload        = BadRequest("uploaded file is empty")
	ErrUploadTooLarge     = BadRequest("uploaded file is too large")
	ErrImageUnprocessable = BadRequest("image could not be processed")
	ErrNoReadableText     = BadRequest("no readable text found in image")

	ErrMissingToken       = Unauthorized("missing authorization token")
	ErrInvalidToken       = Unauthorized("invalid or expired token")
	ErrInvalidCredentials = Unauthorized("invalid email or password")

	ErrChatNotFound    = NotFound("chat not found")
	ErrProfileNotFound = NotFound("user profile not found")

	ErrEmailTaken = Conflict("an account with this email already exists")
)

func ErrLoginFailed(cause error) error {
	return Wrap(CodeInternal, "login failed", cause)
}

func ErrSignupFailed(cause error) error {
	return Wrap(CodeInternal, "signup failed", cause)
}

func ErrExtractionFailed(cause error) error {
	return Wrap(CodeInternal, "text extraction failed", cause)
}
