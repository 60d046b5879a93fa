package httpserver

import "context"

func contextWithClassification(ctx context.Context, c classification) context.Context {
	return context.WithValue(ctx, classificationKey{}, c)
}

func classificationFromContext(ctx context.Context) classification {
	if c, ok := ctx.Value(classificationKey{}).(classification); ok {
		return c
	}
	return classification{}
}
