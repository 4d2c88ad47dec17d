package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bizpulse/internal/model"
	"bizpulse/internal/store"
)

// costMargin derives product cost from inferred price.
const costMargin = 0.7

// EntityStore is the slice of the store the resolver needs.
type EntityStore interface {
	CustomerIDsByEmail(ctx context.Context, q store.Querier, emails []string) (map[string]int64, error)
	ProductIDsByName(ctx context.Context, q store.Querier, names []string) (map[string]int64, error)
	InsertCustomers(ctx context.Context, q store.Querier, customers []model.Customer) (map[string]int64, error)
	InsertProducts(ctx context.Context, q store.Querier, products []model.Product) (map[string]int64, error)
}

// Lookups maps entity identity keys to generated ids, covering both
// pre-existing and newly created entities.
type Lookups struct {
	Customers map[string]int64 // derived email -> id
	Products  map[string]int64 // normalized name -> id
}

// Resolver deduplicates customers and products within a batch, merges them
// against the store and bulk-creates the missing ones. First-seen rows win:
// the first row mentioning an entity provides its representative record.
type Resolver struct {
	store  EntityStore
	logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(st EntityStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: st, logger: logger.With(slog.String("component", "resolver"))}
}

// DeriveEmail converts a cleaned customer display name into the identity key
// used for entity resolution.
func DeriveEmail(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
}

// Resolve runs pass 1 over the cleaned rows inside the upload transaction
// and returns the id lookup tables for pass 2.
func (r *Resolver) Resolve(ctx context.Context, q store.Querier, rows []Row) (*Lookups, error) {
	var (
		emailOrder   []string
		customerRepr = make(map[string]model.Customer)
		nameOrder    []string
		productRepr  = make(map[string]model.Product)
	)

	for _, row := range rows {
		email := DeriveEmail(row.CustomerName)
		if _, seen := customerRepr[email]; !seen {
			emailOrder = append(emailOrder, email)
			customerRepr[email] = model.Customer{
				Name:   row.CustomerName,
				Email:  email,
				Region: row.Region,
			}
		}

		if _, seen := productRepr[row.ProductName]; !seen {
			nameOrder = append(nameOrder, row.ProductName)
			price := unitPrice(row.Revenue, row.Quantity)
			productRepr[row.ProductName] = model.Product{
				Name:     row.ProductName,
				Category: row.Category,
				Price:    price,
				Cost:     price * costMargin,
			}
		}
	}

	r.logger.DebugContext(ctx, "extracted batch entities",
		"unique_customers", len(emailOrder),
		"unique_products", len(nameOrder),
	)

	customers, err := r.resolveCustomers(ctx, q, emailOrder, customerRepr)
	if err != nil {
		return nil, err
	}
	products, err := r.resolveProducts(ctx, q, nameOrder, productRepr)
	if err != nil {
		return nil, err
	}

	return &Lookups{Customers: customers, Products: products}, nil
}

func (r *Resolver) resolveCustomers(ctx context.Context, q store.Querier, order []string, repr map[string]model.Customer) (map[string]int64, error) {
	ids, err := r.store.CustomerIDsByEmail(ctx, q, order)
	if err != nil {
		return nil, fmt.Errorf("lookup existing customers: %w", err)
	}

	var missing []model.Customer
	for _, email := range order {
		if _, ok := ids[email]; !ok {
			missing = append(missing, repr[email])
		}
	}
	if len(missing) == 0 {
		return ids, nil
	}

	created, err := r.store.InsertCustomers(ctx, q, missing)
	if err != nil {
		return nil, fmt.Errorf("create customers: %w", err)
	}
	for email, id := range created {
		ids[email] = id
	}

	// Conflict losers: a concurrent upload created the entity between our
	// read and our insert. Re-read to pick up the winner's id.
	var unresolved []string
	for _, email := range order {
		if _, ok := ids[email]; !ok {
			unresolved = append(unresolved, email)
		}
	}
	if len(unresolved) > 0 {
		won, err := r.store.CustomerIDsByEmail(ctx, q, unresolved)
		if err != nil {
			return nil, fmt.Errorf("re-read raced customers: %w", err)
		}
		for email, id := range won {
			ids[email] = id
		}
	}

	return ids, nil
}

func (r *Resolver) resolveProducts(ctx context.Context, q store.Querier, order []string, repr map[string]model.Product) (map[string]int64, error) {
	ids, err := r.store.ProductIDsByName(ctx, q, order)
	if err != nil {
		return nil, fmt.Errorf("lookup existing products: %w", err)
	}

	var missing []model.Product
	for _, name := range order {
		if _, ok := ids[name]; !ok {
			missing = append(missing, repr[name])
		}
	}
	if len(missing) == 0 {
		return ids, nil
	}

	created, err := r.store.InsertProducts(ctx, q, missing)
	if err != nil {
		return nil, fmt.Errorf("create products: %w", err)
	}
	for name, id := range created {
		ids[name] = id
	}

	var unresolved []string
	for _, name := range order {
		if _, ok := ids[name]; !ok {
			unresolved = append(unresolved, name)
		}
	}
	if len(unresolved) > 0 {
		won, err := r.store.ProductIDsByName(ctx, q, unresolved)
		if err != nil {
			return nil, fmt.Errorf("re-read raced products: %w", err)
		}
		for name, id := range won {
			ids[name] = id
		}
	}

	return ids, nil
}

// unitPrice infers a product's price from its first observed row.
func unitPrice(revenue float64, quantity int) float64 {
	if quantity <= 0 {
		return 0
	}
	return revenue / float64(quantity)
}
