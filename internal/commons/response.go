package commons

// Response is the JSON envelope of every HTTP reply.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// FailureWithData reports an error together with the state it applies to,
// such as a commit gate verdict.
func FailureWithData[T any](message string, data T, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Data:    &data,
		Errors:  errors,
	}
}
