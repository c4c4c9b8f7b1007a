package errs

// 1xxx: request/validation errors, 5xxx: server/dependency errors.
const (
	ServerInternalError = 5000
	RedisUnavailable    = 5001
	MongoUnavailable    = 5002
	KafkaUnavailable    = 5003

	PolicyInvalidError = 1101
	ArgsInvalidError   = 1102
)

var (
	ErrInternal      = NewCodeError(ServerInternalError, "server internal error")
	ErrPolicyInvalid = NewCodeError(PolicyInvalidError, "notification policy invalid")
	ErrArgsInvalid   = NewCodeError(ArgsInvalidError, "args invalid")
)
