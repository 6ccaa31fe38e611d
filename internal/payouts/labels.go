package payouts

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/sellerpay/payouts-backend/pkg/config"
	"github.com/sellerpay/payouts-backend/pkg/db/models"
)

// LabelValues are the fields available to the label templates.
type LabelValues struct {
	SellerID  string
	Amount    string
	AccountID string
	CycleDate string
	Date      string
	DateTime  string
}

// LabelSet renders the transfer and withdraw reference strings sent to the
// wallet provider. Templates are parsed once at construction.
type LabelSet struct {
	public   *template.Template
	private  *template.Template
	withdraw *template.Template
}

// NewLabelSet parses the configured label templates.
func NewLabelSet(cfg config.PayoutsConfig) (*LabelSet, error) {
	public, err := template.New("public").Parse(cfg.PublicLabelTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing public label template: %w", err)
	}
	private, err := template.New("private").Parse(cfg.PrivateLabelTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing private label template: %w", err)
	}
	withdraw, err := template.New("withdraw").Parse(cfg.WithdrawLabelTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing withdraw label template: %w", err)
	}
	return &LabelSet{public: public, private: private, withdraw: withdraw}, nil
}

// TransferLabels renders the public and private transfer labels for the
// operation at the given time.
func (s *LabelSet) TransferLabels(op *models.Operation, now time.Time) (public, private string, err error) {
	values := valuesFor(op, now)
	public, err = render(s.public, values)
	if err != nil {
		return "", "", err
	}
	private, err = render(s.private, values)
	if err != nil {
		return "", "", err
	}
	return public, private, nil
}

// WithdrawLabel renders the withdraw label for the operation at the given time.
func (s *LabelSet) WithdrawLabel(op *models.Operation, now time.Time) (string, error) {
	return render(s.withdraw, valuesFor(op, now))
}

func valuesFor(op *models.Operation, now time.Time) LabelValues {
	sellerID := "operator"
	if op.SellerID != nil {
		sellerID = strconv.FormatInt(*op.SellerID, 10)
	}
	return LabelValues{
		SellerID:  sellerID,
		Amount:    op.Amount.Round(2).StringFixed(2),
		AccountID: op.WalletAccountID,
		CycleDate: op.CycleDate.Format("2006-01-02"),
		Date:      now.Format("2006-01-02"),
		DateTime:  now.Format("2006-01-02 15:04:05"),
	}
}

func render(tmpl *template.Template, values LabelValues) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, values); err != nil {
		return "", fmt.Errorf("rendering %s label: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
