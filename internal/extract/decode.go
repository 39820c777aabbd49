package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rfmelo/gestorpme/internal/domain"
)

// decodePayload converts the repaired model output into import records.
// Output shape: { "clients": [...], "transactions": [...] }.
func decodePayload(parsed any) (Extraction, error) {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return Extraction{}, fmt.Errorf("extract: model output is %T, want object", parsed)
	}

	var ext Extraction

	if rawClients, ok := obj["clients"]; ok && rawClients != nil {
		list, ok := rawClients.([]any)
		if !ok {
			return Extraction{}, fmt.Errorf("extract: 'clients' is %T, want array", rawClients)
		}
		for i, item := range list {
			rec, err := decodeClient(item, i)
			if err != nil {
				return Extraction{}, err
			}
			ext.Clients = append(ext.Clients, rec)
		}
	}

	if rawTxs, ok := obj["transactions"]; ok && rawTxs != nil {
		list, ok := rawTxs.([]any)
		if !ok {
			return Extraction{}, fmt.Errorf("extract: 'transactions' is %T, want array", rawTxs)
		}
		for i, item := range list {
			rec, err := decodeTransaction(item, i)
			if err != nil {
				return Extraction{}, err
			}
			ext.Transactions = append(ext.Transactions, rec)
		}
	}

	return ext, nil
}

func decodeClient(item any, i int) (domain.ImportRecord, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return domain.ImportRecord{}, fmt.Errorf("extract: client %d is %T, want object", i, item)
	}
	rec := domain.ImportRecord{Line: i + 1}
	rec.Set(domain.FieldName, getStringField(obj, "name"))
	rec.Set(domain.FieldTaxID, getStringField(obj, "tax_id"))
	rec.Set(domain.FieldEmail, getStringField(obj, "email"))
	rec.Set(domain.FieldPhone, getStringField(obj, "phone"))
	return rec, nil
}

func decodeTransaction(item any, i int) (domain.ImportRecord, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return domain.ImportRecord{}, fmt.Errorf("extract: transaction %d is %T, want object", i, item)
	}
	rec := domain.ImportRecord{Line: i + 1}
	rec.Set(domain.FieldDescription, getStringField(obj, "description"))
	rec.Set(domain.FieldDate, getStringField(obj, "date"))
	rec.Set(domain.FieldCategory, getStringField(obj, "category"))
	rec.Set(domain.FieldEntity, getStringField(obj, "entity"))
	rec.Set(domain.FieldAccount, getStringField(obj, "account"))

	amount, err := getNumberField(obj, "amount")
	if err != nil {
		return domain.ImportRecord{}, fmt.Errorf("extract: transaction %d: %w", i, err)
	}
	rec.Set(domain.FieldAmount, amount)
	return rec, nil
}

// getStringField tolerates missing keys and nulls. The model fills fields
// it cannot determine with null rather than omitting them.
func getStringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// getNumberField accepts a JSON number or a numeric string and returns it
// rendered with a dot decimal separator for the amount normalizer.
func getNumberField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required field %q", key)
	}
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case string:
		if strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return strings.TrimSpace(val), nil
	default:
		return "", fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
