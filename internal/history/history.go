// Package history maintains the growing, append-only sequence of
// transactions a batch orchestrator run has observed, indexed by the
// keys the seven detectors query by by (user, card, device, and the
// (user, driver) pair) so that a detector does not have to rescan the
// full history for every transaction.
package history

import "github.com/enterprise/fraud-risk-engine/internal/models"

func pairKey(userID, driverID string) string {
	return userID + "\x00" + driverID
}

// History is an ordered, append-only collection of transactions. It is
// not safe for concurrent mutation — spec.md's concurrency model
// dedicates exactly one orchestrator instance to one history.
type History struct {
	all      []models.Transaction
	byUser   map[string][]int
	byCard   map[string][]int
	byDevice map[string][]int
	byPair   map[string][]int
}

// New returns an empty history. Each call allocates fresh backing maps
// and slices — never share one History's indices across instances.
func New() *History {
	return &History{
		all:      make([]models.Transaction, 0),
		byUser:   make(map[string][]int),
		byCard:   make(map[string][]int),
		byDevice: make(map[string][]int),
		byPair:   make(map[string][]int),
	}
}

// Seed builds a history pre-populated with the given transactions, in
// the order given. Used to seed an orchestrator run with prior context.
func Seed(transactions []models.Transaction) *History {
	h := New()
	for _, tx := range transactions {
		h.Append(tx)
	}
	return h
}

// Append adds a transaction to the end of the history and updates every
// per-key index. Must only be called with transactions strictly after
// (in enqueue order) everything already appended.
func (h *History) Append(tx models.Transaction) {
	idx := len(h.all)
	h.all = append(h.all, tx)
	h.byUser[tx.UserID] = append(h.byUser[tx.UserID], idx)
	h.byCard[tx.CardLast4] = append(h.byCard[tx.CardLast4], idx)
	h.byDevice[tx.DeviceID] = append(h.byDevice[tx.DeviceID], idx)
	h.byPair[pairKey(tx.UserID, tx.DriverID)] = append(h.byPair[pairKey(tx.UserID, tx.DriverID)], idx)
}

// Len returns the number of transactions currently in the history.
func (h *History) Len() int {
	return len(h.all)
}

// All returns every transaction observed so far, in enqueue order.
func (h *History) All() []models.Transaction {
	return h.all
}

func (h *History) collect(indices []int) []models.Transaction {
	if len(indices) == 0 {
		return nil
	}
	out := make([]models.Transaction, 0, len(indices))
	for _, i := range indices {
		out = append(out, h.all[i])
	}
	return out
}

// ByUser returns every transaction observed for the given user, in
// enqueue order.
func (h *History) ByUser(userID string) []models.Transaction {
	return h.collect(h.byUser[userID])
}

// ByCard returns every transaction observed for the given card, in
// enqueue order.
func (h *History) ByCard(cardLast4 string) []models.Transaction {
	return h.collect(h.byCard[cardLast4])
}

// ByDevice returns every transaction observed for the given device, in
// enqueue order.
func (h *History) ByDevice(deviceID string) []models.Transaction {
	return h.collect(h.byDevice[deviceID])
}

// ByPair returns every transaction observed for the given (user, driver)
// pair, in enqueue order.
func (h *History) ByPair(userID, driverID string) []models.Transaction {
	return h.collect(h.byPair[pairKey(userID, driverID)])
}
