package rule

import "context"

type RuleRepository interface {
	GetByID(ctx context.Context, id string) (Definition, error)
	List(ctx context.Context, category *Category, activeOnly bool) ([]Definition, error)
	Create(ctx context.Context, def Definition) (Definition, error)
	Update(ctx context.Context, def Definition) (Definition, error)
}
