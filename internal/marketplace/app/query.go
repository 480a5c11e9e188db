package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/history"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

// RecentOrdersLimit is how many orders the admin dashboard lists.
const RecentOrdersLimit = 10

// OrderView is an order joined with the display profiles of its parties.
type OrderView struct {
	domain.Order
	Customer *domain.Profile `json:"customer,omitempty"`
	Chef     *domain.Profile `json:"chef,omitempty"`
}

type Dashboard struct {
	domain.OrderStats
	TotalCustomers int64       `json:"totalUsers"`
	TotalChefs     int64       `json:"totalChefs"`
	TotalMenuItems int64       `json:"totalMenuItems"`
	RecentOrders   []OrderView `json:"recentOrders"`
}

// AdminFilter is the raw admin listing query. Dates accept RFC 3339 or
// YYYY-MM-DD; both bounds are inclusive.
type AdminFilter struct {
	Status    string
	StartDate string
	EndDate   string
}

// QueryService serves the read side of orders.
type QueryService struct {
	orders    ports.OrderRepository
	directory ports.ActorDirectory
	catalog   ports.CatalogReader
	history   history.Repository
}

// NewQueryService wires the read side. directory, catalog and hist may be
// nil: views then carry no profiles, dashboard head counts stay zero and
// history is unavailable.
func NewQueryService(orders ports.OrderRepository, directory ports.ActorDirectory, catalog ports.CatalogReader, hist history.Repository) *QueryService {
	return &QueryService{orders: orders, directory: directory, catalog: catalog, history: hist}
}

func (s *QueryService) CustomerOrders(ctx context.Context, actor domain.Actor) (_ []OrderView, err error) {
	const op = "order.list_customer"
	ctx, span := startSpan(ctx, "QueryService.CustomerOrders", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleCustomer); err != nil {
		return nil, err
	}
	return s.list(ctx, op, domain.OrderFilter{CustomerID: actor.ID})
}

func (s *QueryService) ChefOrders(ctx context.Context, actor domain.Actor) (_ []OrderView, err error) {
	const op = "order.list_chef"
	ctx, span := startSpan(ctx, "QueryService.ChefOrders", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleChef); err != nil {
		return nil, err
	}
	return s.list(ctx, op, domain.OrderFilter{ChefID: actor.ID})
}

func (s *QueryService) AdminOrders(ctx context.Context, actor domain.Actor, q AdminFilter) (_ []OrderView, err error) {
	const op = "order.list_admin"
	ctx, span := startSpan(ctx, "QueryService.AdminOrders", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleAdmin); err != nil {
		return nil, err
	}
	filter, err := q.parse(op)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, op, filter)
}

// GetOrder returns a single order. Orders the actor may not see are reported
// as not found.
func (s *QueryService) GetOrder(ctx context.Context, actor domain.Actor, orderID string) (_ *OrderView, err error) {
	const op = "order.get"
	ctx, span := startSpan(ctx, "QueryService.GetOrder", actor)
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.E(domain.KindNotAuthenticated, op, "authentication required")
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	if !domain.CanView(actor, order) {
		return nil, domain.E(domain.KindNotFound, op, "order %s not found", orderID)
	}
	views := s.enrich(ctx, []domain.Order{*order})
	return &views[0], nil
}

func (s *QueryService) Dashboard(ctx context.Context, actor domain.Actor) (_ *Dashboard, err error) {
	const op = "order.dashboard"
	ctx, span := startSpan(ctx, "QueryService.Dashboard", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleAdmin); err != nil {
		return nil, err
	}
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	d := &Dashboard{OrderStats: stats}
	if s.directory != nil {
		if d.TotalCustomers, err = s.directory.CountByRole(ctx, domain.RoleCustomer); err != nil {
			return nil, domain.Persistence(op, err)
		}
		if d.TotalChefs, err = s.directory.CountByRole(ctx, domain.RoleChef); err != nil {
			return nil, domain.Persistence(op, err)
		}
	}
	if s.catalog != nil {
		if d.TotalMenuItems, err = s.catalog.CountItems(ctx); err != nil {
			return nil, domain.Persistence(op, err)
		}
	}
	if d.RecentOrders, err = s.list(ctx, op, domain.OrderFilter{Limit: RecentOrdersLimit}); err != nil {
		return nil, err
	}
	return d, nil
}

// History returns the transition log of an order, oldest first.
func (s *QueryService) History(ctx context.Context, actor domain.Actor, orderID string) (_ []history.Transition, err error) {
	const op = "order.history"
	ctx, span := startSpan(ctx, "QueryService.History", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, domain.Persistence(op, err)
	}
	if s.history == nil {
		return []history.Transition{}, nil
	}
	entries, err := s.history.List(ctx, orderID)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return entries, nil
}

func (s *QueryService) list(ctx context.Context, op string, filter domain.OrderFilter) ([]OrderView, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return s.enrich(ctx, orders), nil
}

// enrich joins profiles for display. A directory failure degrades the views
// to bare orders rather than failing the read.
func (s *QueryService) enrich(ctx context.Context, orders []domain.Order) []OrderView {
	views := make([]OrderView, len(orders))
	for i := range orders {
		views[i].Order = orders[i]
	}
	if s.directory == nil || len(orders) == 0 {
		return views
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, 2*len(orders))
	for _, o := range orders {
		for _, id := range []string{o.CustomerID, o.ChefID} {
			if _, ok := seen[id]; !ok && id != "" {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	profiles, err := s.directory.Profiles(ctx, ids)
	if err != nil {
		slog.WarnContext(ctx, "profile lookup failed, returning orders without profiles", "error", err)
		return views
	}
	for i := range views {
		if p, ok := profiles[views[i].CustomerID]; ok {
			views[i].Customer = &p
		}
		if p, ok := profiles[views[i].ChefID]; ok {
			views[i].Chef = &p
		}
	}
	return views
}

func (q AdminFilter) parse(op string) (domain.OrderFilter, error) {
	var f domain.OrderFilter
	if q.Status != "" {
		st := domain.OrderStatus(strings.ToLower(strings.TrimSpace(q.Status)))
		if !st.Valid() {
			return f, domain.E(domain.KindValidation, op, "invalid status %q", q.Status)
		}
		f.Status = st
	}
	if q.StartDate != "" {
		t, err := parseDate(q.StartDate)
		if err != nil {
			return f, domain.E(domain.KindValidation, op, "invalid startDate %q", q.StartDate)
		}
		f.From = &t
	}
	if q.EndDate != "" {
		t, err := parseDate(q.EndDate)
		if err != nil {
			return f, domain.E(domain.KindValidation, op, "invalid endDate %q", q.EndDate)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, domain.E(domain.KindValidation, op, "startDate must not be after endDate")
	}
	return f, nil
}

// parseDate accepts RFC 3339 timestamps or bare dates, which mean midnight UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}
