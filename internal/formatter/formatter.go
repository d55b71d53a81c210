// Package formatter renders the WhatsApp message templates sent to providers
// and clients. Every function here is pure.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	FallbackValue    = "Valor a negociar"
	FallbackDeadline = "A definir"
	FallbackWarranty = "Não informado"
	MaterialsYes     = "Sim"
	MaterialsNo      = "Não"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// RequestLink builds the public deep link for a request. Shared externally, so
// the /orcamento/<id> shape must not change.
func RequestLink(baseURL string, requestID string) string {
	return fmt.Sprintf("%s/orcamento/%s", strings.TrimRight(strings.TrimSpace(baseURL), "/"), requestID)
}

// RenderNewRequestMessage is sent to every matching provider.
func RenderNewRequestMessage(baseURL string, title string, requestID string) string {
	var b strings.Builder
	b.WriteString("🔔 *Novo orçamento disponível!*\n\n")
	fmt.Fprintf(&b, "📋 *Serviço:* %s\n\n", strings.TrimSpace(title))
	b.WriteString("Acesse para ver os detalhes e enviar sua proposta:\n")
	b.WriteString(RequestLink(baseURL, requestID))
	return b.String()
}

// NewProposalFields feeds RenderNewProposalMessage. Nil pointers render their fallback.
type NewProposalFields struct {
	Value             *decimal.Decimal
	Deadline          *string
	Description       string
	ServiceTitle      string
	ProviderName      string
	ProviderPhone     string
	MaterialsIncluded bool
	Warranty          *string
}

// RenderNewProposalMessage is sent to the client when a provider bids on their request.
func RenderNewProposalMessage(f NewProposalFields) string {
	var b strings.Builder
	b.WriteString("🎉 *Nova proposta recebida!*\n\n")
	fmt.Fprintf(&b, "💰 *Valor:* %s\n", FormatValue(f.Value))
	fmt.Fprintf(&b, "⏰ *Prazo:* %s\n", orFallback(f.Deadline, FallbackDeadline))
	fmt.Fprintf(&b, "📝 *Descrição:* %s\n\n", strings.TrimSpace(f.Description))
	fmt.Fprintf(&b, "🔧 *Serviço:* %s\n", strings.TrimSpace(f.ServiceTitle))
	fmt.Fprintf(&b, "👤 *Prestador:* %s\n", strings.TrimSpace(f.ProviderName))
	fmt.Fprintf(&b, "📱 *Contato:* %s\n", strings.TrimSpace(f.ProviderPhone))
	fmt.Fprintf(&b, "📦 *Materiais inclusos:* %s\n", materials(f.MaterialsIncluded))
	fmt.Fprintf(&b, "🛡️ *Garantia:* %s", orFallback(f.Warranty, FallbackWarranty))
	return b.String()
}

// FormatValue renders a proposal value as Brazilian currency, e.g. "R$ 1.500,00".
// Cents are rounded half away from zero from the exact decimal value.
func FormatValue(value *decimal.Decimal) string {
	if value == nil {
		return FallbackValue
	}

	fixed := value.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	sign := ""
	if value.Sign() < 0 && fixed != "0.00" {
		sign = "-"
	}
	return fmt.Sprintf("R$ %s%s,%s", sign, groupThousands(whole), cents)
}

// groupThousands inserts pt-BR "." separators into a string of digits.
func groupThousands(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return brPrinter.Sprintf("%d", n)
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func materials(included bool) string {
	if included {
		return MaterialsYes
	}
	return MaterialsNo
}

func orFallback(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	if trimmed := strings.TrimSpace(*value); trimmed != "" {
		return trimmed
	}
	return fallback
}
