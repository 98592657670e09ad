// Package payment Stripe 托管收银台支付网关
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	cfg "github.com/wyfcoding/ecommerce/pkg/config"
)

var minorUnits = decimal.NewFromInt(100)

// StripeGateway 基于 Stripe Checkout 的支付网关
type StripeGateway struct {
	api            *client.API
	webhookSecret  string
	currency       string
	deliveryCharge decimal.Decimal
	frontendURL    string
}

// NewStripeGateway 创建 Stripe 网关
func NewStripeGateway(sc cfg.StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(sc.SecretKey, nil)

	return &StripeGateway{
		api:            api,
		webhookSecret:  sc.WebhookSecret,
		currency:       sc.Currency,
		deliveryCharge: decimal.NewFromInt(sc.DeliveryCharge),
		frontendURL:    sc.FrontendURL,
	}
}

// CreateCheckoutSession 为订单创建收银台会话。
// 金额以最小货币单位传给 Stripe，运费单列一行。
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, order *domain.Order) (*application.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.Price.Mul(minorUnits).IntPart()),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(g.currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String("Delivery Charges"),
			},
			UnitAmount: stripe.Int64(g.deliveryCharge.Mul(minorUnits).IntPart()),
		},
		Quantity: stripe.Int64(1),
	})

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(fmt.Sprintf("%s/verify?success=true&orderId=%s", g.frontendURL, order.ID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/verify?success=false&orderId=%s", g.frontendURL, order.ID)),
	}
	params.Context = ctx
	params.AddMetadata("orderId", order.ID)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &application.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseEvent 校验 webhook 签名并提取结算事件。
// 非 checkout.session.completed 的事件返回 nil 事件，由调用方忽略。
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*application.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, application.ErrInvalidSignature
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	return &application.PaymentEvent{
		OrderID:   sess.Metadata["orderId"],
		SessionID: sess.ID,
		// amount_total 为最小货币单位
		Amount: decimal.NewFromInt(sess.AmountTotal).Div(minorUnits),
	}, nil
}
