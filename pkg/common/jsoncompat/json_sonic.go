//go:build !stdjson

package jsoncompat

import (
	"io"

	"github.com/bytedance/sonic"
)

// Marshal proxies to sonic when the stdjson build tag is absent.
func Marshal(v any) ([]byte, error) { return sonic.Marshal(v) }

// Unmarshal proxies to sonic when the stdjson build tag is absent.
func Unmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }

func NewEncoder(w io.Writer) Encoder { return sonic.ConfigDefault.NewEncoder(w) }

func NewDecoder(r io.Reader) Decoder { return sonic.ConfigDefault.NewDecoder(r) }
