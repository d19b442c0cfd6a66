package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizops-suite/customer-import/internal/models"
)

// CustomerRepository handles data access for customer records. It is the
// record store the import engine persists against.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// customerColumns is the canonical column list for customers, used across
// all queries.
const customerColumns = `id, tenant_id, name, phone, email, address, birthday,
	tags, note, source, total_orders, total_spent, created_at, updated_at`

// scanCustomer scans a row into a Customer using the canonical column order.
func scanCustomer(row pgx.Row, customer *models.Customer) error {
	return row.Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Name,
		&customer.Phone,
		&customer.Email,
		&customer.Address,
		&customer.Birthday,
		&customer.Tags,
		&customer.Note,
		&customer.Source,
		&customer.TotalOrders,
		&customer.TotalSpent,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
}

// Create inserts a new customer record and returns its id.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) (uuid.UUID, error) {
	if customer == nil {
		return uuid.Nil, errors.New("customer cannot be nil")
	}

	query := `
		INSERT INTO customers (
			id, tenant_id, name, phone, email, address, birthday,
			tags, note, source, total_orders, total_spent, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		RETURNING id
	`

	var id uuid.UUID
	err := r.pool.QueryRow(
		ctx, query,
		customer.ID, customer.TenantID, customer.Name, customer.Phone,
		customer.Email, customer.Address, customer.Birthday, customer.Tags,
		customer.Note, customer.Source, customer.TotalOrders, customer.TotalSpent,
		customer.CreatedAt, customer.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Update applies a merge patch to an existing customer, scoped to the
// tenant. Only the fields carried by the patch change; COALESCE keeps the
// stored value where the patch is nil.
func (r *CustomerRepository) Update(ctx context.Context, tenantID, id uuid.UUID, patch *models.CustomerPatch) error {
	if patch == nil {
		return errors.New("patch cannot be nil")
	}

	query := `
		UPDATE customers
		SET name       = COALESCE($3, name),
		    email      = COALESCE($4, email),
		    address    = COALESCE($5, address),
		    birthday   = COALESCE($6, birthday),
		    source     = COALESCE($7, source),
		    tags       = COALESCE($8, tags),
		    note       = COALESCE($9, note),
		    updated_at = $10
		WHERE id = $1 AND tenant_id = $2
	`

	tag, err := r.pool.Exec(
		ctx, query,
		id, tenantID,
		patch.Name, patch.Email, patch.Address, patch.Birthday, patch.Source,
		patch.Tags, patch.Note, patch.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("customer not found")
	}
	return nil
}

// GetByID retrieves a customer by id, scoped to the tenant. Returns nil, nil
// when no row matches.
func (r *CustomerRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND tenant_id = $2`
	customer := &models.Customer{}
	err := scanCustomer(r.pool.QueryRow(ctx, query, id, tenantID), customer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return customer, nil
}

// PhonesByTenant returns the normalized phone -> id map for all of a
// tenant's customers, used to seed the import engine's phone index.
func (r *CustomerRepository) PhonesByTenant(ctx context.Context, tenantID uuid.UUID) (map[string]uuid.UUID, error) {
	query := `SELECT phone, id FROM customers WHERE tenant_id = $1`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phones := make(map[string]uuid.UUID)
	for rows.Next() {
		var phone string
		var id uuid.UUID
		if err := rows.Scan(&phone, &id); err != nil {
			return nil, err
		}
		phones[phone] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return phones, nil
}

// List returns a page of customers for the tenant, optionally filtered by a
// case-insensitive name or phone prefix.
func (r *CustomerRepository) List(ctx context.Context, tenantID uuid.UUID, search string, page, pageSize int) ([]models.Customer, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	filter := `tenant_id = $1`
	args := []interface{}{tenantID}
	if strings.TrimSpace(search) != "" {
		filter += ` AND (name ILIKE $2 OR phone LIKE $2)`
		args = append(args, strings.TrimSpace(search)+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE `+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE ` + filter +
		` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(pageSize) + ` OFFSET ` + strconv.Itoa((page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		customer := models.Customer{}
		if err := scanCustomer(rows, &customer); err != nil {
			return nil, 0, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}
