package shared

import (
	"context"
	"net/http"
	"strconv"
)

// Operator identifies the authenticated actor behind a request. Authentication
// itself happens upstream (gateway); this service only consumes the resolved
// identity and the warehouse-staff capability flag from trusted headers.
type Operator struct {
	ID         int64
	Name       string
	Privileged bool
}

const (
	headerOperatorID   = "X-Operator-Id"
	headerOperatorName = "X-Operator-Name"
	headerOperatorRole = "X-Operator-Role"

	roleWarehouseStaff = "warehouse-staff"
)

type operatorContextKey struct{}

// ContextWithOperator stores the operator in context.
func ContextWithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey{}, op)
}

// OperatorFromContext extracts the operator from context, nil when anonymous.
func OperatorFromContext(ctx context.Context) *Operator {
	op, _ := ctx.Value(operatorContextKey{}).(*Operator)
	return op
}

// OperatorMiddleware resolves the operator identity headers into the request
// context. Requests without an operator id pass through as anonymous; the
// per-route guards decide what anonymous callers may do.
func OperatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idStr := r.Header.Get(headerOperatorID)
		if idStr == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		op := &Operator{
			ID:         id,
			Name:       r.Header.Get(headerOperatorName),
			Privileged: r.Header.Get(headerOperatorRole) == roleWarehouseStaff,
		}
		next.ServeHTTP(w, r.WithContext(ContextWithOperator(r.Context(), op)))
	})
}

// RequireWarehouseStaff rejects requests whose operator lacks the
// warehouse-staff capability.
func RequireWarehouseStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := OperatorFromContext(r.Context())
		if op == nil || !op.Privileged {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
