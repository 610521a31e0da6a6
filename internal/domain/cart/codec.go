package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// snapshotVersion tags the persisted format. A snapshot carrying a
// different version is rejected as corrupt rather than misparsed.
const snapshotVersion = 1

// EncodeSnapshot serializes the cart into the versioned persisted format.
// Prices are written as decimal strings to survive the round trip exactly.
func EncodeSnapshot(c Cart) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("version")
	e.Int(snapshotVersion)
	e.FieldStart("items")
	e.ArrStart()
	for _, p := range c {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(p.ID)
		e.FieldStart("title")
		e.Str(p.Title)
		e.FieldStart("price")
		e.Str(p.Price.String())
		e.FieldStart("image")
		e.Str(p.Image)
		e.FieldStart("amount")
		e.Int(p.Amount)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

// DecodeSnapshot parses a persisted snapshot. Any malformation — bad JSON,
// an unknown version, a non-positive amount — yields ErrCorruptSnapshot;
// stores translate that into an empty cart on load.
func DecodeSnapshot(data []byte) (Cart, error) {
	var (
		version int
		items   Cart
	)

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.Int()
			if err != nil {
				return err
			}
			version = v
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeItem(d)
				if err != nil {
					return err
				}
				items = append(items, p)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(ErrCorruptSnapshot, err.Error())
	}

	if version != snapshotVersion {
		return nil, errors.Wrapf(ErrCorruptSnapshot, "version %d", version)
	}
	for _, p := range items {
		if p.Amount < 1 {
			return nil, errors.Wrapf(ErrCorruptSnapshot, "product %d amount %d", p.ID, p.Amount)
		}
	}
	if items == nil {
		items = Cart{}
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Int64()
			p.ID = v
			return err
		case "title":
			v, err := d.Str()
			p.Title = v
			return err
		case "price":
			s, err := d.Str()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(s)
			if err != nil {
				return err
			}
			p.Price = price
			return nil
		case "image":
			v, err := d.Str()
			p.Image = v
			return err
		case "amount":
			v, err := d.Int()
			p.Amount = v
			return err
		default:
			return d.Skip()
		}
	})
	return p, err
}
