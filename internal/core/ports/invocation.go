package ports

// Invocation is what the serverless platform hands a handler besides the
// event: credentials and free-form user parameters.
type Invocation interface {
	AccessKey() string
	SecretKey() string
	UserData(key string) string
}
