package fileid

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// maxZeroRun — максимальная длина серии нулей, кодируемая одним маркером.
// Счётчик занимает один байт, более длинные серии разбиваются.
const maxZeroRun = 255

// zeroRunEncode сжимает серии нулевых байтов маркером {0x00, count}.
// Ненулевые байты копируются без изменений.
func zeroRunEncode(src []byte) []byte {
	out := make([]byte, 0, len(src))
	run := 0

	flush := func() {
		for run > 0 {
			n := min(run, maxZeroRun)
			out = append(out, 0x00, byte(n))
			run -= n
		}
	}

	for _, b := range src {
		if b == 0 {
			run++
			continue
		}
		flush()
		out = append(out, b)
	}
	flush()

	return out
}

// zeroRunDecode разворачивает маркеры {0x00, count} обратно в серии нулей.
// Маркер без счётчика в конце буфера — ошибка формата.
func zeroRunDecode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src)*2)
	for i := 0; i < len(src); i++ {
		b := src[i]
		if b != 0 {
			out = append(out, b)
			continue
		}
		if i+1 >= len(src) {
			return nil, fmt.Errorf("%w: обрезанный маркер серии нулей", ErrDecode)
		}
		i++
		for n := src[i]; n > 0; n-- {
			out = append(out, 0)
		}
	}
	return out, nil
}

// encodeBase64 — base64url без завершающего паддинга.
func encodeBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// decodeBase64 принимает base64url как с паддингом, так и без него.
func decodeBase64(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный base64url: %v", ErrDecode, err)
	}
	return b, nil
}
