package fileid

import (
	"encoding/binary"
	"fmt"
)

// Тег версии схемы ключа: дописывается после упакованных полей.
// Совпадает с тегом, под которым проиндексированы существующие записи.
const (
	keyTagMinor byte = 22
	keyTagMajor byte = 4
)

// keyRecordLen — длина упакованной записи: int32 + int32 + int64 + int64.
const keyRecordLen = 4 + 4 + 8 + 8

// DeriveKey строит ключ дедупликации из полей идентичности файла.
// Схема: <iiqq little-endian> + {22, 4} → сжатие серий нулей → base64url без паддинга.
// Ссылка (reference) в ключ не входит.
func DeriveKey(fileType Type, dcID int32, mediaID, accessHash int64) string {
	buf := make([]byte, 0, keyRecordLen+2)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(fileType))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dcID))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(mediaID))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(accessHash))
	buf = append(buf, keyTagMinor, keyTagMajor)

	return encodeBase64(zeroRunEncode(buf))
}

// ParseKey восстанавливает поля идентичности из ключа дедупликации.
// Ключ с другим тегом версии отклоняется: смена схемы должна
// сопровождаться новым тегом, а не молчаливой переинтерпретацией.
func ParseKey(key string) (*FileID, error) {
	raw, err := decodeBase64(key)
	if err != nil {
		return nil, err
	}
	data, err := zeroRunDecode(raw)
	if err != nil {
		return nil, err
	}
	if len(data) != keyRecordLen+2 {
		return nil, fmt.Errorf("%w: длина ключа %d, ожидалось %d", ErrDecode, len(data), keyRecordLen+2)
	}
	if data[keyRecordLen] != keyTagMinor || data[keyRecordLen+1] != keyTagMajor {
		return nil, fmt.Errorf("%w: неизвестная версия ключа %d.%d",
			ErrDecode, data[keyRecordLen+1], data[keyRecordLen])
	}

	r := &reader{buf: data[:keyRecordLen]}
	f := &FileID{
		Type:       Type(r.int32()),
		DCID:       r.int32(),
		MediaID:    r.int64(),
		AccessHash: r.int64(),
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

// EncodeReference кодирует ссылку в base64url без паддинга, без сжатия.
func EncodeReference(reference []byte) string {
	return encodeBase64(reference)
}

// DecodeReference — обратная операция к EncodeReference.
func DecodeReference(s string) ([]byte, error) {
	return decodeBase64(s)
}
