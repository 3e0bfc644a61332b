package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"guest-portal/internal/cart"
	"guest-portal/internal/models"
)

// PaymentGateway creates payments on the backend
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error)
	CreateBankTransferOrder(ctx context.Context, req models.PaymentRequest) (*models.BankTransferOrder, error)
}

// Summary is what the guest sees on the checkout page
type Summary struct {
	Items          []models.CartItem      `json:"items"`
	TotalAmount    decimal.Decimal        `json:"total_amount"`
	TotalGuests    int                    `json:"total_guests"`
	Currency       string                 `json:"currency"`
	PaymentMethods []models.PaymentMethod `json:"payment_methods"`
	State          State                  `json:"state"`
}

// CardPayment is returned when a card payment was started
type CardPayment struct {
	ClientSecret string `json:"client_secret"`
	State        State  `json:"state"`
}

// BankTransfer is returned when a bank transfer was started. Without a
// PaymentURL the guest pays manually using Instructions and the flow is complete.
type BankTransfer struct {
	PaymentURL   string                     `json:"payment_url,omitempty"`
	Instructions *models.WiseAccountDetails `json:"instructions,omitempty"`
	State        State                      `json:"state"`
}

// Service runs checkout for one property
type Service struct {
	carts   *cart.Store
	states  *StateStore
	gateway PaymentGateway
	logger  *zap.Logger
}

// NewService creates a checkout service
func NewService(carts *cart.Store, states *StateStore, gateway PaymentGateway, logger *zap.Logger) *Service {
	return &Service{
		carts:   carts,
		states:  states,
		gateway: gateway,
		logger:  logger,
	}
}

// Summary enters checkout. An empty or unreadable cart is cleared and reported as ErrEmptyCart.
func (s *Service) Summary(ctx context.Context, property *models.Property) (*Summary, error) {
	c, err := s.nonEmptyCart(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.states.Sync(ctx, len(c.Items))
	if err != nil {
		return nil, err
	}

	return &Summary{
		Items:          c.Items,
		TotalAmount:    cart.TotalAmount(c),
		TotalGuests:    cart.TotalGuests(c),
		Currency:       property.Currency,
		PaymentMethods: property.PaymentMethods(),
		State:          state,
	}, nil
}

// BeginCardPayment creates a card payment intent for the cart
func (s *Service) BeginCardPayment(ctx context.Context, accessToken string, property *models.Property) (*CardPayment, error) {
	c, err := s.beginPayment(ctx, property, models.PaymentMethodCard)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, cart.NewPaymentRequest(accessToken, c))
	if err != nil {
		return nil, s.paymentFailed(ctx, "Failed to initialize payment", err)
	}

	s.logger.Info("card payment started",
		zap.Int("property_id", property.ID),
		zap.Int("items", len(c.Items)),
		zap.String("total", cart.TotalAmount(c).String()),
	)
	return &CardPayment{ClientSecret: intent.ClientSecret, State: StateAwaitingPayment}, nil
}

// BeginBankTransfer creates a bank transfer order for the cart
func (s *Service) BeginBankTransfer(ctx context.Context, accessToken string, property *models.Property) (*BankTransfer, error) {
	c, err := s.beginPayment(ctx, property, models.PaymentMethodBankTransfer)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateBankTransferOrder(ctx, cart.NewPaymentRequest(accessToken, c))
	if err != nil {
		return nil, s.paymentFailed(ctx, "Failed to create payment order", err)
	}

	s.logger.Info("bank transfer started",
		zap.Int("property_id", property.ID),
		zap.Bool("redirect", order.PaymentURL != ""),
	)

	if order.PaymentURL != "" {
		return &BankTransfer{PaymentURL: order.PaymentURL, State: StateAwaitingPayment}, nil
	}

	if err := s.complete(ctx); err != nil {
		return nil, err
	}
	return &BankTransfer{Instructions: property.WiseAccountDetails, State: StatePaid}, nil
}

// ConfirmPayment records a successful payment and clears the cart
func (s *Service) ConfirmPayment(ctx context.Context) (State, error) {
	current, err := s.states.Current(ctx)
	if err != nil {
		return "", err
	}
	if current.IsTerminal() {
		return current, nil
	}
	if err := s.complete(ctx); err != nil {
		return current, err
	}
	return StatePaid, nil
}

// FailPayment records a failed payment. The cart is kept so the guest can retry.
func (s *Service) FailPayment(ctx context.Context, reason string) (State, error) {
	state, err := s.states.Move(ctx, StateFailed)
	if err != nil {
		return state, err
	}
	s.logger.Warn("payment reported failed", zap.String("reason", reason))
	return state, nil
}

func (s *Service) beginPayment(ctx context.Context, property *models.Property, method models.PaymentMethod) (models.Cart, error) {
	if !property.AcceptsPaymentMethod(method) {
		errs := models.NewValidationError()
		errs.Add("payment_method", "This payment method is not available for this property")
		return models.Cart{}, errs
	}

	c, err := s.nonEmptyCart(ctx)
	if err != nil {
		return models.Cart{}, err
	}

	current, err := s.states.Sync(ctx, len(c.Items))
	if err != nil {
		return models.Cart{}, err
	}
	if current != StateAwaitingPayment {
		if _, err := s.states.Move(ctx, StateAwaitingPayment); err != nil {
			return models.Cart{}, err
		}
	}
	return c, nil
}

func (s *Service) paymentFailed(ctx context.Context, reason string, cause error) error {
	s.logger.Error("payment creation failed", zap.Error(cause))
	if _, err := s.states.Move(ctx, StateFailed); err != nil {
		return errors.Join(&models.PaymentError{Reason: reason, Err: cause}, err)
	}

	var perr *models.PaymentError
	if errors.As(cause, &perr) {
		return perr
	}
	return &models.PaymentError{Reason: reason, Err: cause}
}

func (s *Service) complete(ctx context.Context) error {
	if _, err := s.states.Move(ctx, StatePaid); err != nil {
		return err
	}
	if err := s.carts.Clear(ctx); err != nil {
		return fmt.Errorf("payment recorded but cart was not cleared: %w", err)
	}
	return nil
}

func (s *Service) nonEmptyCart(ctx context.Context) (models.Cart, error) {
	c, recovered, err := s.carts.Load(ctx)
	if err != nil {
		return models.Cart{}, err
	}
	if !c.IsEmpty() {
		return c, nil
	}

	if err := s.carts.Clear(ctx); err != nil {
		return models.Cart{}, err
	}
	if err := s.states.ItemsChanged(ctx, 0); err != nil {
		return models.Cart{}, err
	}
	if recovered {
		return models.Cart{}, fmt.Errorf("%w: %w", models.ErrEmptyCart, models.ErrCorruptCart)
	}
	return models.Cart{}, models.ErrEmptyCart
}
