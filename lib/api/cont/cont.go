package cont

import (
	"context"
	"ticketdesk/entity"
)

type ctxKey string

const OperatorKey ctxKey = "operator"

func PutOperator(c context.Context, operator *entity.Operator) context.Context {
	return context.WithValue(c, OperatorKey, *operator)
}

func GetOperator(c context.Context) *entity.Operator {
	operator, ok := c.Value(OperatorKey).(entity.Operator)
	if !ok {
		return nil
	}
	return &operator
}
