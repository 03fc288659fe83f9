package main

import (
	"strconv"

	"github.com/open-edge-platform/boxctl/internal/utils/convert"
	"github.com/spf13/pflag"
)

// sizeValue is a pflag.Value holding a size in MiB. It accepts plain MiB counts and
// suffixed values such as 12G or 512M.
type sizeValue uint64

var _ pflag.Value = (*sizeValue)(nil)

func newSizeValue(defMiB uint64, p *uint64) *sizeValue {
	*p = defMiB
	return (*sizeValue)(p)
}

func (s *sizeValue) Set(v string) error {
	mib, err := convert.ParseMiB(v)
	if err != nil {
		return err
	}
	*s = sizeValue(mib)
	return nil
}

func (s *sizeValue) String() string {
	return strconv.FormatUint(uint64(*s), 10)
}

func (s *sizeValue) Type() string {
	return "size"
}
