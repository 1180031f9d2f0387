// Package cheese is the row store behind the list: a table of cheeses kept
// in SQLite and read back in a stable order.
package cheese

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/pagelist/internal/db"
	"github.com/charmbracelet/pagelist/internal/pubsub"
)

var (
	ErrEmptyName = errors.New("cheese name is empty")
	ErrNotFound  = errors.New("cheese not found")
)

// Cheese is one row.
type Cheese struct {
	ID        int64
	Name      string
	CreatedAt int64
}

// Key returns the row's identity.
func (c Cheese) Key() string {
	return strconv.FormatInt(c.ID, 10)
}

// SameContents reports whether two rows render the same.
func SameContents(a, b Cheese) bool {
	return a.Name == b.Name
}

func (c Cheese) String() string {
	return c.Name
}

// SortKey selects the order rows are read back in.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByID   SortKey = "id"
)

// ParseSortKey parses s, defaulting to SortByName when s is empty.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByName:
		return SortByName, nil
	case SortByID:
		return SortByID, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

type Service interface {
	pubsub.Subscriber[Cheese]
	Count(ctx context.Context) (int, error)
	Range(ctx context.Context, offset, limit int) ([]Cheese, error)
	Create(ctx context.Context, name string) (Cheese, error)
	Insert(ctx context.Context, c Cheese) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Cheese, error)
	Seed(ctx context.Context, names []string) (int, error)
	Clear(ctx context.Context) (int, error)
	Sort() SortKey
	Shutdown()
}

type service struct {
	*pubsub.Broker[Cheese]
	conn *sql.DB
	q    *db.Queries
	sort SortKey
}

// NewService returns a Service reading conn in the given order.
func NewService(conn *sql.DB, sort SortKey) Service {
	if sort == "" {
		sort = SortByName
	}
	return &service{
		Broker: pubsub.NewBroker[Cheese](),
		conn:   conn,
		q:      db.New(conn),
		sort:   sort,
	}
}

func (s *service) Sort() SortKey {
	return s.sort
}

func (s *service) Count(ctx context.Context) (int, error) {
	n, err := s.q.CountCheeses(ctx)
	if err != nil {
		return 0, fmt.Errorf("count cheeses: %w", err)
	}
	return int(n), nil
}

func (s *service) Range(ctx context.Context, offset, limit int) ([]Cheese, error) {
	var (
		rows []db.Cheese
		err  error
	)
	switch s.sort {
	case SortByID:
		rows, err = s.q.ListCheesesByID(ctx, db.ListCheesesByIDParams{
			Limit:  int64(limit),
			Offset: int64(offset),
		})
	default:
		rows, err = s.q.ListCheesesByName(ctx, db.ListCheesesByNameParams{
			Limit:  int64(limit),
			Offset: int64(offset),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("list cheeses: %w", err)
	}

	cheeses := make([]Cheese, len(rows))
	for i, r := range rows {
		cheeses[i] = fromDB(r)
	}
	return cheeses, nil
}

func (s *service) Create(ctx context.Context, name string) (Cheese, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Cheese{}, ErrEmptyName
	}
	row, err := s.q.CreateCheese(ctx, name)
	if err != nil {
		return Cheese{}, fmt.Errorf("create cheese: %w", err)
	}
	c := fromDB(row)
	s.Publish(pubsub.CreatedEvent, c)
	return c, nil
}

// Insert stores c. A zero ID lets the store assign one.
func (s *service) Insert(ctx context.Context, c Cheese) error {
	if c.ID == 0 {
		_, err := s.Create(ctx, c.Name)
		return err
	}

	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	row, err := s.q.InsertCheese(ctx, db.InsertCheeseParams{ID: c.ID, Name: name})
	if err != nil {
		return fmt.Errorf("insert cheese %d: %w", c.ID, err)
	}
	s.Publish(pubsub.CreatedEvent, fromDB(row))
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.q.DeleteCheese(ctx, id)
	if err != nil {
		return fmt.Errorf("delete cheese %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete cheese %d: %w", id, ErrNotFound)
	}
	s.Publish(pubsub.DeletedEvent, c)
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (Cheese, error) {
	row, err := s.q.GetCheese(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Cheese{}, fmt.Errorf("cheese %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Cheese{}, fmt.Errorf("get cheese %d: %w", id, err)
	}
	return fromDB(row), nil
}

// Seed fills an empty table with names in a single transaction. Blank names
// are skipped. It returns how many rows were added, zero if the table
// already had rows.
func (s *service) Seed(ctx context.Context, names []string) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	q := s.q.WithTx(tx)
	n, err := q.CountCheeses(ctx)
	if err != nil {
		return 0, fmt.Errorf("count cheeses: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	var added []Cheese
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		row, err := q.CreateCheese(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("seed %q: %w", name, err)
		}
		added = append(added, fromDB(row))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	for _, c := range added {
		s.Publish(pubsub.CreatedEvent, c)
	}
	return len(added), nil
}

// Clear deletes every row and returns how many were removed.
func (s *service) Clear(ctx context.Context) (int, error) {
	n, err := s.q.DeleteAllCheeses(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear cheeses: %w", err)
	}
	return int(n), nil
}

func fromDB(r db.Cheese) Cheese {
	return Cheese{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}
