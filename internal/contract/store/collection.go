package store

import (
	"context"
	"sync"

	"contractbook/internal/contract/models"
	"contractbook/pkg/platform/sentinel"
)

// Collection is the in-memory, ordered set of contracts for one process. It
// owns the next-id counter: ids are handed out monotonically and never reused
// while the process runs, even after deletes.
type Collection struct {
	mu        sync.RWMutex
	contracts []*models.Contract
	nextID    int
}

func NewCollection() *Collection {
	return &Collection{nextID: 1}
}

// Reset replaces the contents with contracts (in order) and seeds the
// next-id counter with the highest id plus one.
func (c *Collection) Reset(_ context.Context, contracts []*models.Contract) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contracts = make([]*models.Contract, 0, len(contracts))
	maxID := 0
	for _, contract := range contracts {
		c.contracts = append(c.contracts, contract.Clone())
		if contract.ID > maxID {
			maxID = contract.ID
		}
	}
	c.nextID = maxID + 1
}

// Insert assigns the next id to contract and appends it.
func (c *Collection) Insert(_ context.Context, contract *models.Contract) (*models.Contract, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := contract.Clone()
	stored.ID = c.nextID
	c.nextID++
	c.contracts = append(c.contracts, stored)
	return stored.Clone(), nil
}

func (c *Collection) FindByID(_ context.Context, contractID int) (*models.Contract, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(contractID); i >= 0 {
		return c.contracts[i].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// Update replaces the stored contract with the same id, keeping its position.
func (c *Collection) Update(_ context.Context, contract *models.Contract) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(contract.ID)
	if i < 0 {
		return sentinel.ErrNotFound
	}
	c.contracts[i] = contract.Clone()
	return nil
}

func (c *Collection) Delete(_ context.Context, contractID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(contractID)
	if i < 0 {
		return sentinel.ErrNotFound
	}
	c.contracts = append(c.contracts[:i], c.contracts[i+1:]...)
	return nil
}

// List returns copies of all contracts in collection order.
func (c *Collection) List(_ context.Context) []*models.Contract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Contract, len(c.contracts))
	for i, contract := range c.contracts {
		out[i] = contract.Clone()
	}
	return out
}

// NextID returns the id the next Insert will assign.
func (c *Collection) NextID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextID
}

func (c *Collection) indexOf(contractID int) int {
	for i, contract := range c.contracts {
		if contract.ID == contractID {
			return i
		}
	}
	return -1
}
