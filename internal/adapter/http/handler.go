package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tiendix/tiendix/internal/app"
	"github.com/tiendix/tiendix/internal/domain"
	"github.com/tiendix/tiendix/internal/scope"
)

const timeFormat = "2006-01-02T15:04:05Z"

// StoreResponse is the API representation of a store.
type StoreResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Name      string `json:"name" doc:"Display name"`
	Slug      string `json:"slug" doc:"URL-friendly identifier"`
	Active    bool   `json:"active" doc:"Whether the store is open"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toStoreResponse(t domain.Tenant) StoreResponse {
	return StoreResponse{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Active:    t.Active,
		CreatedAt: t.CreatedAt.Format(timeFormat),
	}
}

// OrderLineResponse is one line of an order projection.
type OrderLineResponse struct {
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID         string              `json:"id"`
	Status     string              `json:"status" doc:"PENDING, FULFILLED or CANCELLED"`
	TotalCents int64               `json:"total_cents"`
	BuyerName  string              `json:"buyer_name"`
	Lines      []OrderLineResponse `json:"lines"`
	CreatedAt  string              `json:"created_at"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:         o.ID,
		Status:     string(o.Status),
		TotalCents: o.TotalCents,
		BuyerName:  o.BuyerName,
		CreatedAt:  o.CreatedAt.Format(timeFormat),
	}
	for _, line := range o.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			SKU:            line.SKU,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			SubtotalCents:  line.SubtotalCents,
		})
	}
	return resp
}

// PlanResponse is the API representation of a plan.
type PlanResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Interval    string `json:"interval" doc:"month, year or none"`
	TrialDays   int    `json:"trial_days"`
	MaxProducts int    `json:"max_products" doc:"0 = unlimited"`
	MaxVariants int    `json:"max_variants" doc:"0 = unlimited"`
}

func toPlanResponse(p domain.Plan) PlanResponse {
	return PlanResponse{
		ID:          p.ID,
		Name:        p.Name,
		PriceCents:  p.PriceCents,
		Interval:    string(p.Interval),
		TrialDays:   p.TrialDays,
		MaxProducts: p.MaxProducts,
		MaxVariants: p.MaxVariants,
	}
}

// SubscriptionResponse is the API representation of a subscription.
type SubscriptionResponse struct {
	ID                string  `json:"id"`
	PlanID            string  `json:"plan_id"`
	Status            string  `json:"status"`
	PeriodStart       string  `json:"period_start"`
	PeriodEnd         *string `json:"period_end"`
	EndsAt            *string `json:"ends_at" doc:"null = lifetime"`
	TrialEndsAt       *string `json:"trial_ends_at"`
	CancelAt          *string `json:"cancel_at"`
	CancelAtPeriodEnd bool    `json:"cancel_at_period_end"`
	DaysRemaining     int     `json:"days_remaining" doc:"whole days until the period ends, -1 = lifetime"`
	NearExpiry        bool    `json:"near_expiry" doc:"current period ends within 7 days"`
}

func toSubscriptionResponse(s domain.Subscription, now time.Time) SubscriptionResponse {
	fmtOpt := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		v := t.Format(timeFormat)
		return &v
	}
	return SubscriptionResponse{
		ID:                s.ID,
		PlanID:            s.PlanID,
		Status:            string(s.Status),
		PeriodStart:       s.PeriodStart.Format(timeFormat),
		PeriodEnd:         fmtOpt(s.PeriodEnd),
		EndsAt:            fmtOpt(s.EndsAt),
		TrialEndsAt:       fmtOpt(s.TrialEndsAt),
		CancelAt:          fmtOpt(s.CancelAt),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		DaysRemaining:     s.DaysRemaining(now),
		NearExpiry:        s.NearExpiry(now),
	}
}

// VariantResponse is the API representation of a variant.
type VariantResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

// --- Inputs/outputs ---

type CreateStoreInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Slug string `json:"slug" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-friendly identifier (lowercase, hyphens)"`
	}
}

type CreateStoreOutput struct {
	Body StoreResponse
}

type GetStoreInput struct {
	Slug string `path:"slug" doc:"Store slug"`
}

type GetStoreOutput struct {
	Body StoreResponse
}

type CloseStoreOutput struct {
	Body StoreResponse
}

type CreateOrderInput struct {
	Slug string `path:"slug" doc:"Store slug"`
	Body struct {
		BuyerName       string `json:"buyer_name" minLength:"1" maxLength:"255"`
		ShippingAddress string `json:"shipping_address,omitempty" maxLength:"500"`
		SessionID       string `json:"session_id,omitempty" doc:"Anonymous session identifier"`
		Lines           []struct {
			SKU      string `json:"sku" minLength:"1"`
			Quantity int    `json:"quantity" minimum:"1"`
		} `json:"lines" minItems:"1"`
	}
}

type CreateOrderOutput struct {
	Body OrderResponse
}

type GetOrderInput struct {
	Slug string `path:"slug" doc:"Store slug"`
	ID   string `path:"id" doc:"Order ID"`
}

type GetOrderOutput struct {
	Body OrderResponse
}

type TransitionOrderInput struct {
	Slug string `path:"slug" doc:"Store slug"`
	ID   string `path:"id" doc:"Order ID"`
	Body struct {
		// Validated downstream so the error echoes the offending value.
		Status string `json:"status" doc:"Target status: PENDING, FULFILLED or CANCELLED"`
	}
}

type TransitionOrderOutput struct {
	Body OrderResponse
}

type AddVariantInput struct {
	Body struct {
		ProductID  string `json:"product_id" minLength:"1"`
		SKU        string `json:"sku" minLength:"1" maxLength:"100"`
		PriceCents int64  `json:"price_cents" minimum:"0"`
		Stock      int    `json:"stock" minimum:"0" doc:"Initial stock count"`
	}
}

type AddVariantOutput struct {
	Body VariantResponse
}

type ListPlansOutput struct {
	Body []PlanResponse
}

type CurrentSubscriptionOutput struct {
	Body struct {
		Subscription *SubscriptionResponse `json:"subscription" doc:"Current vigente subscription, null when none"`
	}
}

type CreateSubscriptionInput struct {
	Body struct {
		PlanID string `json:"plan_id" minLength:"1"`
	}
}

type SubscriptionOutput struct {
	Body SubscriptionResponse
}

type ChangePlanInput struct {
	Body struct {
		PlanID      string `json:"plan_id" minLength:"1"`
		ProviderRef string `json:"provider_ref,omitempty" doc:"External billing reference"`
	}
}

type CancelSubscriptionInput struct {
	Body struct {
		Reason string `json:"reason,omitempty" maxLength:"500"`
	}
}

// Services bundles the application services the API depends on.
type Services struct {
	Stores        *app.StoreService
	Catalog       *app.CatalogService
	Orders        *app.OrderService
	Subscriptions *app.SubscriptionService
}

// Register adds all storefront API routes to the Huma API.
func Register(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "create-store",
		Method:      http.MethodPost,
		Path:        "/api/v1/tiendas",
		Summary:     "Create a new store",
		Tags:        []string{"Stores"},
	}, func(ctx context.Context, input *CreateStoreInput) (*CreateStoreOutput, error) {
		identity, ok := scope.Identity(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		tenant, err := svc.Stores.Create(ctx, input.Body.Name, input.Body.Slug, identity.AccountID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateStoreOutput{Body: toStoreResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-store",
		Method:      http.MethodGet,
		Path:        "/api/v1/tiendas/{slug}",
		Summary:     "Get a store by slug",
		Tags:        []string{"Stores"},
	}, func(ctx context.Context, input *GetStoreInput) (*GetStoreOutput, error) {
		tenant, err := scope.Tenant(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetStoreOutput{Body: toStoreResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-store",
		Method:      http.MethodPost,
		Path:        "/api/v1/mi/tienda/close",
		Summary:     "Deactivate the caller's store",
		Tags:        []string{"Stores"},
	}, func(ctx context.Context, _ *struct{}) (*CloseStoreOutput, error) {
		if _, ok := scope.Identity(ctx); !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		tenant, err := scope.Tenant(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		closed, err := svc.Stores.Deactivate(ctx, tenant.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CloseStoreOutput{Body: toStoreResponse(closed)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-variant",
		Method:      http.MethodPost,
		Path:        "/api/v1/mi/variants",
		Summary:     "Add a sellable variant to the caller's store",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *AddVariantInput) (*AddVariantOutput, error) {
		if _, ok := scope.Identity(ctx); !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		variant, err := svc.Catalog.AddVariant(ctx, input.Body.ProductID, input.Body.SKU, input.Body.PriceCents, input.Body.Stock)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AddVariantOutput{Body: VariantResponse{
			ID:         variant.ID,
			ProductID:  variant.ProductID,
			SKU:        variant.SKU,
			PriceCents: variant.PriceCents,
			Stock:      variant.Stock,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/tiendas/{slug}/orders",
		Summary:     "Create a pending order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *CreateOrderInput) (*CreateOrderOutput, error) {
		lines := make([]app.OrderLineInput, len(input.Body.Lines))
		for i, l := range input.Body.Lines {
			lines[i] = app.OrderLineInput{SKU: l.SKU, Quantity: l.Quantity}
		}
		var buyerUserID string
		if identity, ok := scope.Identity(ctx); ok {
			buyerUserID = identity.AccountID
		}
		order, err := svc.Orders.Create(ctx, input.Body.BuyerName, input.Body.ShippingAddress, buyerUserID, input.Body.SessionID, lines)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateOrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        "/api/v1/tiendas/{slug}/orders/{id}",
		Summary:     "Get an order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *GetOrderInput) (*GetOrderOutput, error) {
		order, err := svc.Orders.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetOrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-order",
		Method:      http.MethodPut,
		Path:        "/api/v1/tiendas/{slug}/orders/{id}/status",
		Summary:     "Move an order to a new status",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *TransitionOrderInput) (*TransitionOrderOutput, error) {
		order, err := svc.Orders.Transition(ctx, input.ID, input.Body.Status)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TransitionOrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/api/v1/planes",
		Summary:     "List subscription plans",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, _ *struct{}) (*ListPlansOutput, error) {
		plans, err := svc.Subscriptions.ListPlans(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]PlanResponse, len(plans))
		for i, p := range plans {
			resp[i] = toPlanResponse(p)
		}
		return &ListPlansOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "current-subscription",
		Method:      http.MethodGet,
		Path:        "/api/v1/mi/subscription",
		Summary:     "Get the caller's current subscription",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, _ *struct{}) (*CurrentSubscriptionOutput, error) {
		tenant, err := requireOwnerTenant(ctx)
		if err != nil {
			return nil, err
		}
		out := &CurrentSubscriptionOutput{}
		sub, err := svc.Subscriptions.Current(ctx, tenant)
		if err != nil {
			if errors.Is(err, domain.ErrSubscriptionNotFound) {
				return out, nil
			}
			return nil, toHumaError(err)
		}
		resp := toSubscriptionResponse(sub, time.Now().UTC())
		out.Body.Subscription = &resp
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-subscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/mi/subscription",
		Summary:     "Start the caller's subscription on a plan",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *CreateSubscriptionInput) (*SubscriptionOutput, error) {
		tenant, err := requireOwnerTenant(ctx)
		if err != nil {
			return nil, err
		}
		sub, err := svc.Subscriptions.CreateInitial(ctx, tenant, input.Body.PlanID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(sub, time.Now().UTC())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-subscription-plan",
		Method:      http.MethodPost,
		Path:        "/api/v1/mi/subscription/plan",
		Summary:     "Switch the caller's subscription to a new plan",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *ChangePlanInput) (*SubscriptionOutput, error) {
		tenant, err := requireOwnerTenant(ctx)
		if err != nil {
			return nil, err
		}
		sub, err := svc.Subscriptions.ChangePlan(ctx, tenant, input.Body.PlanID, input.Body.ProviderRef)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(sub, time.Now().UTC())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-subscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/mi/subscription/cancel",
		Summary:     "Schedule cancellation at period end",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *CancelSubscriptionInput) (*SubscriptionOutput, error) {
		tenant, err := requireOwnerTenant(ctx)
		if err != nil {
			return nil, err
		}
		sub, err := svc.Subscriptions.Cancel(ctx, tenant, false, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(sub, time.Now().UTC())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-subscription-immediate",
		Method:      http.MethodPost,
		Path:        "/api/v1/mi/subscription/cancel-immediate",
		Summary:     "Cancel immediately",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *CancelSubscriptionInput) (*SubscriptionOutput, error) {
		tenant, err := requireOwnerTenant(ctx)
		if err != nil {
			return nil, err
		}
		sub, err := svc.Subscriptions.Cancel(ctx, tenant, true, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(sub, time.Now().UTC())}, nil
	})
}

// requireOwnerTenant returns the tenant resolved from the authenticated
// owner, translating the failure modes: no identity is 401, no owned store
// is 404.
func requireOwnerTenant(ctx context.Context) (domain.Tenant, error) {
	if _, ok := scope.Identity(ctx); !ok {
		return domain.Tenant{}, huma.Error401Unauthorized("authentication required")
	}
	tenant, err := scope.Tenant(ctx)
	if err != nil {
		return domain.Tenant{}, huma.Error404NotFound("no store resolved for caller")
	}
	return tenant, nil
}

// toHumaError translates domain errors to Huma HTTP errors. Unexpected
// failures surface as an opaque 500; the details stay server-side.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTenantNotFound):
		return huma.Error404NotFound("tenant does not exist")
	case errors.Is(err, domain.ErrOrderNotFound):
		return huma.Error404NotFound("order not found")
	case errors.Is(err, domain.ErrVariantNotFound):
		return huma.Error404NotFound("variant not found")
	case errors.Is(err, domain.ErrPlanNotFound):
		return huma.Error404NotFound("plan not found")
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return huma.Error404NotFound("subscription not found")
	case errors.Is(err, domain.ErrNoTenant):
		return huma.Error404NotFound("no store resolved for this request")
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return huma.Error400BadRequest(validationErr.Error())
	}

	var accessErr *domain.AccessDeniedError
	if errors.As(err, &accessErr) {
		return huma.Error403Forbidden("not authorized for this resource")
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return huma.Error409Conflict(stockErr.Error())
	}

	var stateErr *domain.IllegalStateError
	if errors.As(err, &stateErr) {
		return huma.Error400BadRequest(stateErr.Error())
	}

	var slugErr *domain.SlugConflictError
	if errors.As(err, &slugErr) {
		return huma.Error409Conflict(slugErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
