// Пакет fileid — кодек удалённых идентификаторов файлов мессенджера.
//
// Удалённый идентификатор (remote file id) содержит стабильные поля
// идентичности файла (тип, DC, media id, access hash) и изменчивую
// ссылку (file reference), которую платформа периодически обновляет.
// Ключ дедупликации строится только из полей идентичности (см. DeriveKey),
// поэтому один и тот же физический файл, проиндексированный дважды
// с разными ссылками, даёт один и тот же ключ.
package fileid

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrDecode — удалённый идентификатор не удалось разобрать.
// Вызывающий пропускает одну запись, пакет целиком не прерывается.
var ErrDecode = errors.New("некорректный идентификатор файла")

// Флаги, которые платформа добавляет к полю типа.
const (
	webLocationFlag   int32 = 1 << 24
	fileReferenceFlag int32 = 1 << 25
)

// Версия формата удалённого идентификатора, которую генерирует Encode.
const (
	remoteMajorVersion byte = 4
	remoteMinorVersion byte = 30
)

// Type — тег типа файла из удалённого идентификатора.
type Type int32

// Теги типов, используемые платформой.
const (
	TypeThumbnail          Type = 0
	TypeChatPhoto          Type = 1
	TypePhoto              Type = 2
	TypeVoice              Type = 3
	TypeVideo              Type = 4
	TypeDocument           Type = 5
	TypeEncrypted          Type = 6
	TypeTemp               Type = 7
	TypeSticker            Type = 8
	TypeAudio              Type = 9
	TypeAnimation          Type = 10
	TypeEncryptedThumbnail Type = 11
	TypeWallpaper          Type = 12
	TypeVideoNote          Type = 13
	TypeSecureRaw          Type = 14
	TypeSecure             Type = 15
	TypeBackground         Type = 16
	TypeDocumentAsFile     Type = 17
)

// Valid сообщает, известен ли тег.
func (t Type) Valid() bool {
	return t >= TypeThumbnail && t <= TypeDocumentAsFile
}

// FileID — разобранный удалённый идентификатор.
type FileID struct {
	// Type — тег типа (без служебных флагов)
	Type Type
	// DCID — идентификатор датацентра
	DCID int32
	// MediaID — числовой идентификатор медиа
	MediaID int64
	// AccessHash — access hash медиа
	AccessHash int64
	// Reference — изменчивая ссылка на файл (может быть пустой)
	Reference []byte
}

// Key возвращает ключ дедупликации для разобранного идентификатора.
func (f *FileID) Key() string {
	return DeriveKey(f.Type, f.DCID, f.MediaID, f.AccessHash)
}

// Decode разбирает удалённый идентификатор.
// Любая ошибка формата оборачивает ErrDecode.
func Decode(remoteID string) (*FileID, error) {
	if remoteID == "" {
		return nil, fmt.Errorf("%w: пустой идентификатор", ErrDecode)
	}

	raw, err := decodeBase64(remoteID)
	if err != nil {
		return nil, err
	}
	data, err := zeroRunDecode(raw)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: слишком короткий идентификатор", ErrDecode)
	}

	// Последний байт — major-версия; начиная с 4 перед ним лежит minor-версия.
	major := data[len(data)-1]
	body := data[:len(data)-1]
	if major >= 4 {
		body = data[:len(data)-2]
	}

	r := &reader{buf: body}
	rawType := r.int32()
	dcID := r.int32()
	if r.err != nil {
		return nil, r.err
	}

	if rawType&webLocationFlag != 0 {
		return nil, fmt.Errorf("%w: web-location идентификатор не содержит media id", ErrDecode)
	}
	hasReference := rawType&fileReferenceFlag != 0
	fileType := Type(rawType &^ (webLocationFlag | fileReferenceFlag))
	if !fileType.Valid() {
		return nil, fmt.Errorf("%w: неизвестный тип файла %d", ErrDecode, int32(fileType))
	}

	var reference []byte
	if hasReference {
		reference = r.tlBytes()
	}
	mediaID := r.int64()
	accessHash := r.int64()
	if r.err != nil {
		return nil, r.err
	}

	return &FileID{
		Type:       fileType,
		DCID:       dcID,
		MediaID:    mediaID,
		AccessHash: accessHash,
		Reference:  reference,
	}, nil
}

// Encode собирает удалённый идентификатор в формате платформы (версия 4.30).
// Фото-специфичный хвост не формируется.
func Encode(f *FileID) string {
	rawType := int32(f.Type)
	if len(f.Reference) > 0 {
		rawType |= fileReferenceFlag
	}

	buf := make([]byte, 0, 32+len(f.Reference))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(rawType))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(f.DCID))
	if len(f.Reference) > 0 {
		buf = appendTLBytes(buf, f.Reference)
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(f.MediaID))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(f.AccessHash))
	buf = append(buf, remoteMinorVersion, remoteMajorVersion)

	return encodeBase64(zeroRunEncode(buf))
}

// reader — последовательное чтение little-endian полей с накоплением ошибки.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("%w: неожиданный конец данных (нужно %d байт на позиции %d из %d)",
			ErrDecode, n, r.pos, len(r.buf))
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) int32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *reader) int64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// tlBytes читает строку байтов в TL-сериализации:
// длина 0..253 — один байт, иначе 0xFE и три байта длины; выравнивание на 4.
func (r *reader) tlBytes() []byte {
	head := r.take(1)
	if head == nil {
		return nil
	}

	length := int(head[0])
	headerLen := 1
	if length >= 254 {
		ext := r.take(3)
		if ext == nil {
			return nil
		}
		length = int(ext[0]) | int(ext[1])<<8 | int(ext[2])<<16
		headerLen = 4
	}

	data := r.take(length)
	if data == nil {
		return nil
	}
	r.take(tlPadding(headerLen + length))

	out := make([]byte, len(data))
	copy(out, data)
	return out
}

func appendTLBytes(buf, data []byte) []byte {
	headerLen := 1
	if len(data) <= 253 {
		buf = append(buf, byte(len(data)))
	} else {
		n := len(data)
		buf = append(buf, 254, byte(n), byte(n>>8), byte(n>>16))
		headerLen = 4
	}
	buf = append(buf, data...)
	for i := tlPadding(headerLen + len(data)); i > 0; i-- {
		buf = append(buf, 0)
	}
	return buf
}

func tlPadding(n int) int {
	return (4 - n%4) % 4
}
