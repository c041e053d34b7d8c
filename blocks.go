package psd

import "fmt"

// AdditionalInfoBlock is the header of one tagged metadata block from
// the additional layer information area. Payloads are skipped, not
// interpreted.
type AdditionalInfoBlock struct {
	Signature string // "8BIM" or "8B64"
	Key       string // 4-char block key, e.g. "Lr16", "Patt"
	Length    uint32 // declared payload length, before padding
}

// pad4 returns the padding needed to round n up to a 4-byte boundary.
// The format documentation says block payloads round to even lengths,
// but real files only reconcile when padded to 4.
func pad4(n uint32) uint32 {
	return (4 - n%4) % 4
}

// scanAdditionalInfo walks additional info blocks until the byte budget
// is exhausted. The budget is the scan's only termination condition;
// there is no block count. Structural violations (unknown tag magic,
// a block that does not fit the remaining budget) halt the scan.
func scanAdditionalInfo(c *cursor, budget int64) ([]AdditionalInfoBlock, error) {
	var blocks []AdditionalInfoBlock

	for budget > 0 {
		if budget < additionalBlockOverhead {
			return blocks, fmt.Errorf("additional info: %d bytes left before block header: %w",
				budget, ErrBudgetUnderrun)
		}

		var b AdditionalInfoBlock
		var err error
		if b.Signature, err = c.readSignature(); err != nil {
			return blocks, fmt.Errorf("additional info: %w", err)
		}
		if b.Signature != sig8BIM && b.Signature != sig8B64 {
			return blocks, fmt.Errorf("additional info block signature %q: %w",
				b.Signature, ErrInvalidBlockSignature)
		}
		if b.Key, err = c.readSignature(); err != nil {
			return blocks, fmt.Errorf("additional info: %w", err)
		}
		if b.Length, err = c.readUint32(); err != nil {
			return blocks, fmt.Errorf("additional info: %w", err)
		}

		padded := int64(b.Length) + int64(pad4(b.Length))
		if err = c.skip(int(padded)); err != nil {
			return blocks, fmt.Errorf("additional info block %q: %w", b.Key, err)
		}

		budget -= padded + additionalBlockOverhead
		if budget < 0 {
			return blocks, fmt.Errorf("additional info block %q overruns budget by %d: %w",
				b.Key, -budget, ErrBudgetUnderrun)
		}
		blocks = append(blocks, b)
	}

	return blocks, nil
}
