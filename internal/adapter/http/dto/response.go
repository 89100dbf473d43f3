package dto

import (
	"sort"
	"time"

	"github.com/avel/splitledger/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MemberResponse represents a member in API responses.
type MemberResponse struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	WalletAddress *string   `json:"wallet_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MemberFromDomain converts a domain member to a response.
func MemberFromDomain(m *domain.Member) *MemberResponse {
	return &MemberResponse{
		ID:            m.ID,
		DisplayName:   m.DisplayName,
		WalletAddress: m.WalletAddress,
		CreatedAt:     m.CreatedAt,
	}
}

// MembersFromDomain converts domain members to responses.
func MembersFromDomain(members []*domain.Member) []*MemberResponse {
	result := make([]*MemberResponse, len(members))
	for i, m := range members {
		result[i] = MemberFromDomain(m)
	}
	return result
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	OwnerID     string    `json:"owner_id"`
	MemberIDs   []string  `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupFromDomain converts a domain group to a response.
func GroupFromDomain(g *domain.Group) *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Currency:    g.Currency,
		OwnerID:     g.OwnerID,
		MemberIDs:   g.MemberIDs,
		CreatedAt:   g.CreatedAt,
	}
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID           string               `json:"id"`
	GroupID      string               `json:"group_id"`
	Title        string               `json:"title"`
	Category     string               `json:"category"`
	Amount       domain.Money         `json:"amount"`
	PayerID      string               `json:"payer_id"`
	SplitType    string               `json:"split_type"`
	Participants []domain.Participant `json:"participants"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ExpenseFromDomain converts a domain expense to a response.
func ExpenseFromDomain(e *domain.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Title:        e.Title,
		Category:     e.Category,
		Amount:       e.Amount,
		PayerID:      e.PayerID,
		SplitType:    string(e.SplitType),
		Participants: e.Participants,
		CreatedAt:    e.CreatedAt,
	}
}

// ExpensesFromDomain converts domain expenses to responses.
func ExpensesFromDomain(expenses []*domain.Expense) []*ExpenseResponse {
	result := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		result[i] = ExpenseFromDomain(e)
	}
	return result
}

// SettlementResponse represents a settlement in API responses.
type SettlementResponse struct {
	ID            string       `json:"id"`
	GroupID       string       `json:"group_id"`
	PayerID       string       `json:"payer_id"`
	PayeeID       string       `json:"payee_id"`
	Amount        domain.Money `json:"amount"`
	Method        string       `json:"method"`
	Status        string       `json:"status"`
	FailureReason string       `json:"failure_reason,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ConfirmedAt   *time.Time   `json:"confirmed_at,omitempty"`
}

// SettlementFromDomain converts a domain settlement to a response.
func SettlementFromDomain(s *domain.Settlement) *SettlementResponse {
	return &SettlementResponse{
		ID:            s.ID,
		GroupID:       s.GroupID,
		PayerID:       s.PayerID,
		PayeeID:       s.PayeeID,
		Amount:        s.Amount,
		Method:        string(s.Method),
		Status:        string(s.Status),
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt,
		ConfirmedAt:   s.ConfirmedAt,
	}
}

// SettlementsFromDomain converts domain settlements to responses.
func SettlementsFromDomain(settlements []*domain.Settlement) []*SettlementResponse {
	result := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		result[i] = SettlementFromDomain(s)
	}
	return result
}

// MemberBalance is one member's net position in a balance response.
type MemberBalance struct {
	MemberID string       `json:"member_id"`
	Net      domain.Money `json:"net"`
}

// BalancesResponse represents a group's derived balances.
type BalancesResponse struct {
	GroupID  string               `json:"group_id"`
	Currency string               `json:"currency"`
	AsOfSeq  int64                `json:"as_of_seq"`
	Net      []MemberBalance      `json:"net"`
	Pairwise []domain.PairBalance `json:"pairwise"`
}

// BalancesFromDomain converts a balance sheet to a response. Net balances
// are sorted by member id so responses are stable.
func BalancesFromDomain(groupID string, sheet *domain.BalanceSheet) *BalancesResponse {
	net := make([]MemberBalance, 0, len(sheet.Net))
	for memberID, m := range sheet.Net {
		net = append(net, MemberBalance{MemberID: memberID, Net: m})
	}

	sort.Slice(net, func(i, j int) bool { return net[i].MemberID < net[j].MemberID })

	return &BalancesResponse{
		GroupID:  groupID,
		Currency: sheet.Currency,
		AsOfSeq:  sheet.AsOfSeq,
		Net:      net,
		Pairwise: sheet.Pairwise,
	}
}

// PlanResponse represents a settlement plan.
type PlanResponse struct {
	GroupID   string                   `json:"group_id"`
	Transfers []domain.PlannedTransfer `json:"transfers"`
}
