package order

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// Receipt is the snapshot stored with a transaction.
type Receipt struct {
	OrderNumber   string
	Items         []Item
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	Timestamp     time.Time
}

// Encode renders the receipt as a JSON object.
func (r Receipt) Encode() []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("order_number", func(e *jx.Encoder) { e.Str(r.OrderNumber) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range r.Items {
					encodeItem(e, it)
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Float64(r.Total.InexactFloat64()) })
		e.Field("payment_method", func(e *jx.Encoder) { e.Str(string(r.PaymentMethod)) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Str(r.Timestamp.UTC().Format(time.RFC3339Nano)) })
	})
	return e.Bytes()
}

func encodeItem(e *jx.Encoder, it Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("product_name", func(e *jx.Encoder) { e.Str(it.ProductName) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(it.Price.InexactFloat64()) })
		e.Field("category", func(e *jx.Encoder) { e.Str(string(it.Category)) })
	})
}

// DecodeReceipt parses a receipt produced by Encode. Unknown keys are
// skipped.
func DecodeReceipt(data []byte) (Receipt, error) {
	var r Receipt
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "order_number":
			v, err := d.Str()
			r.OrderNumber = v
			return err
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				it, err := decodeItem(d)
				if err != nil {
					return err
				}
				r.Items = append(r.Items, it)
				return nil
			})
		case "total":
			v, err := decodeDecimal(d)
			r.Total = v
			return err
		case "payment_method":
			v, err := d.Str()
			r.PaymentMethod = PaymentMethod(v)
			return err
		case "timestamp":
			v, err := d.Str()
			if err != nil {
				return err
			}
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return errors.Wrap(err, "parse timestamp")
			}
			r.Timestamp = t
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return Receipt{}, errors.Wrap(err, "decode receipt")
	}
	return r, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var it Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Str()
			it.ProductID = v
			return err
		case "product_name":
			v, err := d.Str()
			it.ProductName = v
			return err
		case "quantity":
			v, err := d.Int()
			it.Quantity = v
			return err
		case "price":
			v, err := decodeDecimal(d)
			it.Price = v
			return err
		case "category":
			v, err := d.Str()
			it.Category = product.Category(v)
			return err
		default:
			return d.Skip()
		}
	})
	return it, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}
