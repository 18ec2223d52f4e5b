package auth

import "context"

// Operator is the authenticated console operator for the current request.
type Operator struct {
	Name  string
	Roles []string
}

type contextKey int

const operatorContextKey contextKey = iota

func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey, op)
}

func OperatorFromContext(ctx context.Context) *Operator {
	if op, ok := ctx.Value(operatorContextKey).(*Operator); ok {
		return op
	}
	return nil
}
