package order

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common/txutils"
)

// ValidateFill checks the amounts of a single order fill. inputAmount is
// the amount locked in the order, remainder what is re-locked when the
// fill is partial.
func (p MakerOrderParams) ValidateFill(
	inputAmount, makerReceiveAmount, remainder uint64,
) error {
	if remainder == 0 {
		return p.validateFullFill(inputAmount, makerReceiveAmount)
	}
	return p.validatePartialFill(inputAmount, makerReceiveAmount, remainder)
}

func (p MakerOrderParams) validateFullFill(inputAmount, makerReceiveAmount uint64) error {
	switch p.Direction {
	case SellBase:
		expected, err := checkedMul(inputAmount, p.Price)
		if err != nil {
			return err
		}
		if makerReceiveAmount != expected {
			return fmt.Errorf(
				"%w: maker receives %d, expected %d",
				ErrConservationViolation, makerReceiveAmount, expected,
			)
		}
	default:
		paid, err := checkedMul(makerReceiveAmount, p.Price)
		if err != nil {
			return err
		}
		if paid != inputAmount {
			return fmt.Errorf(
				"%w: %d lots at price %d do not consume input %d",
				ErrConservationViolation, makerReceiveAmount, p.Price, inputAmount,
			)
		}
	}
	return nil
}

func (p MakerOrderParams) validatePartialFill(
	inputAmount, makerReceiveAmount, remainder uint64,
) error {
	switch p.Direction {
	case SellBase:
		if remainder >= inputAmount {
			return fmt.Errorf(
				"%w: remainder %d must be lower than input %d",
				ErrConservationViolation, remainder, inputAmount,
			)
		}
		consumed := inputAmount - remainder
		expected, err := checkedMul(consumed, p.Price)
		if err != nil {
			return err
		}
		if makerReceiveAmount != expected {
			return fmt.Errorf(
				"%w: maker receives %d, expected %d",
				ErrConservationViolation, makerReceiveAmount, expected,
			)
		}
		if consumed < p.MinFillLots {
			return fmt.Errorf(
				"%w: fill of %d lots is below minimum %d",
				ErrConservationViolation, consumed, p.MinFillLots,
			)
		}
		if remainder < p.MinRemainderLots {
			return fmt.Errorf(
				"%w: remainder of %d lots is below minimum %d",
				ErrConservationViolation, remainder, p.MinRemainderLots,
			)
		}
	default:
		if makerReceiveAmount == 0 {
			return fmt.Errorf(
				"%w: partial fill must buy at least one lot", ErrConservationViolation,
			)
		}
		paid, err := checkedMul(makerReceiveAmount, p.Price)
		if err != nil {
			return err
		}
		total, err := txutils.Add64(paid, remainder)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrMakerOrderOverflow, err)
		}
		if total != inputAmount {
			return fmt.Errorf(
				"%w: paid %d plus remainder %d differ from input %d",
				ErrConservationViolation, paid, remainder, inputAmount,
			)
		}
		if makerReceiveAmount < p.MinFillLots {
			return fmt.Errorf(
				"%w: fill of %d lots is below minimum %d",
				ErrConservationViolation, makerReceiveAmount, p.MinFillLots,
			)
		}
		minRemainder, err := checkedMul(p.MinRemainderLots, p.Price)
		if err != nil {
			return err
		}
		if remainder < minRemainder {
			return fmt.Errorf(
				"%w: remainder %d is below minimum %d",
				ErrConservationViolation, remainder, minRemainder,
			)
		}
	}
	return nil
}

func checkedMul(a, b uint64) (uint64, error) {
	v, err := txutils.Mul64(a, b)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMakerOrderOverflow, err)
	}
	return v, nil
}
