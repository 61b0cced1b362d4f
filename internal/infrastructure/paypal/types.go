package paypal

// Wire types for the PayPal v1 REST API. Two amount schemas coexist across
// endpoint generations and both are kept exactly as the API expects them:
// payments and orders take {"currency","total"}, while capture refunds and
// billing plan definitions take {"currency","value"}.

// Amount is the payments/orders amount object.
type Amount struct {
	Total    string         `json:"total"`
	Currency string         `json:"currency"`
	Details  *AmountDetails `json:"details,omitempty"`
}

type AmountDetails struct {
	Subtotal string `json:"subtotal,omitempty"`
	Tax      string `json:"tax,omitempty"`
	Shipping string `json:"shipping,omitempty"`
}

// Currency is the newer-generation amount object.
type Currency struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type Payer struct {
	PaymentMethod string     `json:"payment_method"`
	PayerInfo     *PayerInfo `json:"payer_info,omitempty"`
}

type PayerInfo struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	PayerID   string `json:"payer_id,omitempty"`
}

type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	SKU         string `json:"sku,omitempty"`
}

type ShippingAddress struct {
	RecipientName string `json:"recipient_name,omitempty"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	CountryCode   string `json:"country_code"`
	Phone         string `json:"phone,omitempty"`
}

type ItemList struct {
	Items           []Item           `json:"items,omitempty"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
}

type Transaction struct {
	Amount           *Amount           `json:"amount"`
	Description      string            `json:"description,omitempty"`
	InvoiceNumber    string            `json:"invoice_number,omitempty"`
	ItemList         *ItemList         `json:"item_list,omitempty"`
	RelatedResources []RelatedResource `json:"related_resources,omitempty"`
}

// RelatedResource carries whichever nested resource the response embeds.
type RelatedResource struct {
	Order         *OrderResource         `json:"order,omitempty"`
	Authorization *AuthorizationResource `json:"authorization,omitempty"`
	Capture       *CaptureResource       `json:"capture,omitempty"`
	Refund        *RefundResource        `json:"refund,omitempty"`
}

type RedirectURLs struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

// PaymentRequest is the create-payment body (intent "order").
type PaymentRequest struct {
	Intent       string        `json:"intent"`
	Payer        *Payer        `json:"payer"`
	Transactions []Transaction `json:"transactions"`
	RedirectURLs *RedirectURLs `json:"redirect_urls,omitempty"`
}

type Payment struct {
	ID           string        `json:"id"`
	Intent       string        `json:"intent,omitempty"`
	State        string        `json:"state,omitempty"`
	Payer        *Payer        `json:"payer,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Links        []Link        `json:"links,omitempty"`
	CreateTime   string        `json:"create_time,omitempty"`
	UpdateTime   string        `json:"update_time,omitempty"`
}

type ExecuteRequest struct {
	PayerID string `json:"payer_id"`
}

type OrderResource struct {
	ID               string            `json:"id"`
	State            string            `json:"state,omitempty"`
	Amount           *Amount           `json:"amount,omitempty"`
	PendingReason    string            `json:"pending_reason,omitempty"`
	ParentPayment    string            `json:"parent_payment,omitempty"`
	RelatedResources []RelatedResource `json:"related_resources,omitempty"`
	CreateTime       string            `json:"create_time,omitempty"`
	UpdateTime       string            `json:"update_time,omitempty"`
}

type AuthorizationRequest struct {
	Amount *Amount `json:"amount"`
}

type AuthorizationResource struct {
	ID            string  `json:"id"`
	State         string  `json:"state,omitempty"`
	Amount        *Amount `json:"amount,omitempty"`
	ParentPayment string  `json:"parent_payment,omitempty"`
	ValidUntil    string  `json:"valid_until,omitempty"`
}

type CaptureRequest struct {
	Amount         *Amount `json:"amount"`
	IsFinalCapture bool    `json:"is_final_capture"`
}

type CaptureResource struct {
	ID             string    `json:"id"`
	State          string    `json:"state,omitempty"`
	Amount         *Amount   `json:"amount,omitempty"`
	TransactionFee *Currency `json:"transaction_fee,omitempty"`
	ParentPayment  string    `json:"parent_payment,omitempty"`
	CreateTime     string    `json:"create_time,omitempty"`
}

// RefundRequest refunds a capture; this endpoint generation takes the
// {"currency","value"} amount object.
type RefundRequest struct {
	Amount      *Currency `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
}

type RefundResource struct {
	ID            string    `json:"id"`
	State         string    `json:"state,omitempty"`
	Amount        *Currency `json:"amount,omitempty"`
	CaptureID     string    `json:"capture_id,omitempty"`
	ParentPayment string    `json:"parent_payment,omitempty"`
	CreateTime    string    `json:"create_time,omitempty"`
}

// Billing plans.

type PaymentDefinition struct {
	Name              string    `json:"name"`
	Type              string    `json:"type"` // REGULAR or TRIAL
	Frequency         string    `json:"frequency"`
	FrequencyInterval string    `json:"frequency_interval"`
	Cycles            string    `json:"cycles"`
	Amount            *Currency `json:"amount"`
}

type MerchantPreferences struct {
	SetupFee                *Currency `json:"setup_fee,omitempty"`
	ReturnURL               string    `json:"return_url"`
	CancelURL               string    `json:"cancel_url"`
	AutoBillAmount          string    `json:"auto_bill_amount,omitempty"`
	InitialFailAmountAction string    `json:"initial_fail_amount_action,omitempty"`
	MaxFailAttempts         string    `json:"max_fail_attempts,omitempty"`
}

type BillingPlanRequest struct {
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	Type                string               `json:"type"` // FIXED or INFINITE
	PaymentDefinitions  []PaymentDefinition  `json:"payment_definitions"`
	MerchantPreferences *MerchantPreferences `json:"merchant_preferences,omitempty"`
}

type BillingPlan struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name,omitempty"`
	Description         string               `json:"description,omitempty"`
	Type                string               `json:"type,omitempty"`
	State               string               `json:"state,omitempty"`
	PaymentDefinitions  []PaymentDefinition  `json:"payment_definitions,omitempty"`
	MerchantPreferences *MerchantPreferences `json:"merchant_preferences,omitempty"`
	CreateTime          string               `json:"create_time,omitempty"`
}

type BillingPlanList struct {
	Plans      []BillingPlan `json:"plans"`
	TotalItems string        `json:"total_items,omitempty"`
	TotalPages string        `json:"total_pages,omitempty"`
}

// PatchOp is the JSON-patch element for plan state updates.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Billing agreements.

type PlanRef struct {
	ID string `json:"id"`
}

type BillingAgreementRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date"` // RFC3339
	Payer       *Payer   `json:"payer"`
	Plan        *PlanRef `json:"plan"`
}

type AgreementDetails struct {
	OutstandingBalance *Currency `json:"outstanding_balance,omitempty"`
	CyclesCompleted    string    `json:"cycles_completed,omitempty"`
	CyclesRemaining    string    `json:"cycles_remaining,omitempty"`
	NextBillingDate    string    `json:"next_billing_date,omitempty"`
	FinalPaymentDate   string    `json:"final_payment_date,omitempty"`
	FailedPaymentCount string    `json:"failed_payment_count,omitempty"`
}

type BillingAgreement struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	State            string            `json:"state,omitempty"`
	StartDate        string            `json:"start_date,omitempty"`
	Payer            *Payer            `json:"payer,omitempty"`
	Plan             *BillingPlan      `json:"plan,omitempty"`
	AgreementDetails *AgreementDetails `json:"agreement_details,omitempty"`
	Links            []Link            `json:"links,omitempty"`
}

// AgreementStateDescriptor is the body of cancel/suspend/reactivate calls.
type AgreementStateDescriptor struct {
	Note string `json:"note"`
}

type BillBalanceRequest struct {
	Note   string    `json:"note"`
	Amount *Currency `json:"amount"`
}

type AgreementTransaction struct {
	TransactionID   string    `json:"transaction_id"`
	Status          string    `json:"status,omitempty"`
	TransactionType string    `json:"transaction_type,omitempty"`
	Amount          *Currency `json:"amount,omitempty"`
	FeeAmount       *Currency `json:"fee_amount,omitempty"`
	NetAmount       *Currency `json:"net_amount,omitempty"`
	PayerEmail      string    `json:"payer_email,omitempty"`
	PayerName       string    `json:"payer_name,omitempty"`
	TimeStamp       string    `json:"time_stamp,omitempty"`
}

type AgreementTransactionList struct {
	Transactions []AgreementTransaction `json:"agreement_transaction_list"`
}

type tokenResponse struct {
	Scope       string `json:"scope"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	AppID       string `json:"app_id"`
	ExpiresIn   int64  `json:"expires_in"`
}

type errorResponse struct {
	Name            string        `json:"name"`
	Message         string        `json:"message"`
	InformationLink string        `json:"information_link,omitempty"`
	DebugID         string        `json:"debug_id,omitempty"`
	Details         []errorDetail `json:"details,omitempty"`
}

type errorDetail struct {
	Field string `json:"field,omitempty"`
	Issue string `json:"issue,omitempty"`
}

// Response states compared case-insensitively by callers.
const (
	PaymentStateApproved = "approved"

	OrderStateCompleted = "COMPLETED"
	OrderStateCaptured  = "CAPTURED"
	OrderStateVoided    = "VOIDED"

	RefundStateCompleted = "completed"
	RefundStatePending   = "pending"

	PlanStateActive = "ACTIVE"
)
