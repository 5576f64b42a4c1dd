package response

import (
	"villa-booking/internal/domain/booking"

	"github.com/jinzhu/copier"
)

// Read models keep money as int64 minor units while responses carry major units.
// Every int64 in a copied view is money.
var copyOption = copier.Option{
	DeepCopy: true,
	Converters: []copier.TypeConverter{
		{
			SrcType: int64(0),
			DstType: float64(0),
			Fn: func(src any) (any, error) {
				return toMajor(src.(int64)), nil
			},
		},
	},
}

func copyView(dst, src any) error {
	return copier.CopyWithOption(dst, src, copyOption)
}

func toMajor(minor int64) float64 {
	m, err := booking.NewMoney(minor)
	if err != nil {
		return float64(minor) / 100
	}
	return m.Major()
}
