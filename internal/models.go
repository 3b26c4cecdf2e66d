package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an identifier that the backend may send as a JSON number or string
type ID string

// UnmarshalJSON accepts 42, "42" and null
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to parse id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to parse id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integer ids as JSON numbers so request bodies
// match what the backend sends. Anything else, "007" included, stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

// Product is a sellable reference attached to a chat message
type Product struct {
	SellableID ID      `json:"sellable_id,omitempty" yaml:"sellable_id,omitempty"`
	Name       string  `json:"name" yaml:"name"`
	Price      float64 `json:"price" yaml:"price"`
}

// FormatPrice renders a price in pesos
func FormatPrice(price float64) string {
	return fmt.Sprintf("₱%.2f", price)
}

// Message is a single chat message. Optimistic and inbound records use the
// same shape; server-assigned fields are ID and Timestamp.
type Message struct {
	ID         ID        `json:"id,omitempty" yaml:"id,omitempty"`
	SenderID   ID        `json:"senderId" yaml:"sender_id"`
	ReceiverID ID        `json:"receiverId" yaml:"receiver_id"`
	Body       string    `json:"message" yaml:"message"`
	Product    *Product  `json:"product,omitempty" yaml:"product,omitempty"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp,omitempty"`
}

// MarshalJSON leaves out a zero timestamp; drafts have none until stored.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	out := struct {
		plain
		Timestamp *time.Time `json:"timestamp,omitempty"`
	}{plain: plain(m)}
	if !m.Timestamp.IsZero() {
		out.Timestamp = &m.Timestamp
	}
	return json.Marshal(out)
}

// ConversationKey returns the unordered pair key that identifies a conversation
func ConversationKey(a, b ID) string {
	if a > b {
		a, b = b, a
	}
	return string(a) + ":" + string(b)
}

// Key returns the conversation this message belongs to
func (m Message) Key() string {
	return ConversationKey(m.SenderID, m.ReceiverID)
}

// BelongsTo reports whether the message is part of the conversation between a and b
func (m Message) BelongsTo(a, b ID) bool {
	return m.Key() == ConversationKey(a, b)
}

// Counterpart identifies the other side of a conversation in an unread summary
type Counterpart struct {
	UserID    ID     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
}

// DisplayName returns the counterpart's name, falling back to the user id
func (c Counterpart) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	if c.UserID != "" {
		return "user " + string(c.UserID)
	}
	return "unknown"
}

// UnreadSummary is one entry of a business account's unread chat list
type UnreadSummary struct {
	ChatID   ID          `json:"chatId" yaml:"chat_id"`
	SenderID ID          `json:"senderId,omitempty" yaml:"sender_id,omitempty"`
	Sender   Counterpart `json:"sender" yaml:"sender"`
	Message  string      `json:"message" yaml:"message"`
}

// SummaryFromMessage derives an unread summary for a message pushed live
func SummaryFromMessage(m Message) UnreadSummary {
	chatID := m.ID
	if chatID == "" {
		chatID = m.SenderID
	}
	preview := m.Body
	if strings.TrimSpace(preview) == "" && m.Product != nil {
		preview = "[" + m.Product.Name + "]"
	}
	return UnreadSummary{
		ChatID:   chatID,
		SenderID: m.SenderID,
		Sender:   Counterpart{UserID: m.SenderID},
		Message:  preview,
	}
}

// User roles
const (
	RoleCustomer      = "CUSTOMER"
	RoleBusinessOwner = "BUSINESS_OWNER"
	RoleAdmin         = "ADMIN"
)

// User represents a user account
type User struct {
	UserID         ID     `json:"user_id" yaml:"user_id"`
	FirstName      string `json:"first_name" yaml:"first_name"`
	LastName       string `json:"last_name" yaml:"last_name"`
	Email          string `json:"email,omitempty" yaml:"email,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	UserType       string `json:"user_type" yaml:"user_type"`
	IsVerified     bool   `json:"is_verified" yaml:"is_verified"`
	DateRegistered string `json:"date_registered,omitempty" yaml:"date_registered,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty" yaml:"profile_picture,omitempty"`
}

// Location is a physical location of a business
type Location struct {
	LocationID ID     `json:"location_id" yaml:"location_id"`
	City       string `json:"city" yaml:"city"`
	Province   string `json:"province" yaml:"province"`
	PostalCode string `json:"postal_code" yaml:"postal_code"`
}

// Category is a business category
type Category struct {
	CategoryID   ID     `json:"category_id" yaml:"category_id"`
	CategoryName string `json:"category_name" yaml:"category_name"`
}

// Sellable types
const (
	SellableProduct = "PRODUCT"
	SellableService = "SERVICE"
)

// Sellable is a product or service offered by a business
type Sellable struct {
	SellableID   ID       `json:"sellable_id" yaml:"sellable_id"`
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type" yaml:"type"`
	Price        float64  `json:"price" yaml:"price"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Media        []string `json:"media,omitempty" yaml:"media,omitempty"`
	IsActive     bool     `json:"is_active" yaml:"is_active"`
	BusinessName string   `json:"business_name,omitempty" yaml:"business_name,omitempty"`
	BusinessID   ID       `json:"business_id,omitempty" yaml:"business_id,omitempty"`
}

// Business is a business listing, including its sellables
type Business struct {
	BusinessID     ID         `json:"business_id" yaml:"business_id"`
	BusinessName   string     `json:"business_name" yaml:"business_name"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Category       Category   `json:"Category" yaml:"category"`
	Address        string     `json:"address,omitempty" yaml:"address,omitempty"`
	ContactNumber  string     `json:"contact_number,omitempty" yaml:"contact_number,omitempty"`
	WebsiteURL     string     `json:"website_url,omitempty" yaml:"website_url,omitempty"`
	IsVerified     bool       `json:"is_verified" yaml:"is_verified"`
	Locations      []Location `json:"Locations" yaml:"locations"`
	Sellables      []Sellable `json:"sellables" yaml:"sellables"`
	UserID         ID         `json:"user_id" yaml:"user_id"`
	DateRegistered string     `json:"date_registered,omitempty" yaml:"date_registered,omitempty"`
	Logo           string     `json:"logo,omitempty" yaml:"logo,omitempty"`
	Banner         string     `json:"banner,omitempty" yaml:"banner,omitempty"`
}

// Dispute statuses
const (
	DisputePending   = "PENDING"
	DisputeResolved  = "RESOLVED"
	DisputeDismissed = "DISMISSED"
)

// Dispute is a complaint filed against a transaction
type Dispute struct {
	DisputeID     ID     `json:"dispute_id" yaml:"dispute_id"`
	TransactionID ID     `json:"transaction_id" yaml:"transaction_id"`
	ComplainantID ID     `json:"complainant_id" yaml:"complainant_id"`
	Reason        string `json:"reason" yaml:"reason"`
	Status        string `json:"status" yaml:"status"`
	AdminResponse string `json:"admin_response,omitempty" yaml:"admin_response,omitempty"`
	Complainant   *User  `json:"Complainant,omitempty" yaml:"complainant,omitempty"`
}

// Review is a customer review of a business
type Review struct {
	ReviewID   ID        `json:"review_id" yaml:"review_id"`
	UserID     ID        `json:"user_id" yaml:"user_id"`
	BusinessID ID        `json:"business_id" yaml:"business_id"`
	Rating     int       `json:"rating" yaml:"rating"`
	ReviewText string    `json:"review_text,omitempty" yaml:"review_text,omitempty"`
	Media      []string  `json:"media,omitempty" yaml:"media,omitempty"`
	ReviewDate string    `json:"review_date,omitempty" yaml:"review_date,omitempty"`
	IsVerified bool      `json:"is_verified" yaml:"is_verified"`
	User       *User     `json:"User,omitempty" yaml:"user,omitempty"`
	Business   *Business `json:"Business,omitempty" yaml:"business,omitempty"`
}

// Verification statuses
const (
	VerificationPending  = "PENDING"
	VerificationApproved = "APPROVED"
	VerificationDenied   = "DENIED"
)

// UserVerification is an identity verification submitted by a user
type UserVerification struct {
	VerificationID ID     `json:"verification_id" yaml:"verification_id"`
	UserID         ID     `json:"user_id" yaml:"user_id"`
	IDImage        string `json:"id_image" yaml:"id_image"`
	Status         string `json:"status" yaml:"status"`
	ReviewedBy     ID     `json:"reviewed_by,omitempty" yaml:"reviewed_by,omitempty"`
	ResponseDate   string `json:"response_date,omitempty" yaml:"response_date,omitempty"`
	DenialReason   string `json:"denial_reason,omitempty" yaml:"denial_reason,omitempty"`
	User           *User  `json:"User,omitempty" yaml:"user,omitempty"`
}

// VerificationRequest is a business permit verification
type VerificationRequest struct {
	RequestID      ID        `json:"request_id" yaml:"request_id"`
	BusinessID     ID        `json:"business_id" yaml:"business_id"`
	Status         string    `json:"status" yaml:"status"`
	BusinessPermit string    `json:"business_permit" yaml:"business_permit"`
	RequestDate    string    `json:"request_date,omitempty" yaml:"request_date,omitempty"`
	ReviewedBy     ID        `json:"reviewed_by,omitempty" yaml:"reviewed_by,omitempty"`
	ResponseDate   string    `json:"response_date,omitempty" yaml:"response_date,omitempty"`
	DenialReason   string    `json:"denial_reason,omitempty" yaml:"denial_reason,omitempty"`
	Business       *Business `json:"Business,omitempty" yaml:"business,omitempty"`
}

// Transaction statuses set by the customer on confirmation
const (
	TransactionFinished   = "FINISHED"
	TransactionIncomplete = "INCOMPLETE"
)

// TransactionItem is one line of a transaction
type TransactionItem struct {
	SellableID ID  `json:"sellable_id" yaml:"sellable_id"`
	Quantity   int `json:"quantity" yaml:"quantity"`
}

// Transaction is a purchase between a customer and a business
type Transaction struct {
	TransactionID    ID                `json:"transaction_id" yaml:"transaction_id"`
	CustomerID       ID                `json:"customer_id" yaml:"customer_id"`
	BusinessID       ID                `json:"business_id" yaml:"business_id"`
	Status           string            `json:"status" yaml:"status"`
	TotalAmount      float64           `json:"total_amount,omitempty" yaml:"total_amount,omitempty"`
	ReasonIncomplete string            `json:"reason_incomplete,omitempty" yaml:"reason_incomplete,omitempty"`
	Items            []TransactionItem `json:"items,omitempty" yaml:"items,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}
