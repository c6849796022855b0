package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

type fakeSaver struct {
	outcome service.SaveOutcome
	err     error
	got     []model.IngestDescriptor
}

func (f *fakeSaver) Save(_ context.Context, d model.IngestDescriptor) (service.SaveOutcome, error) {
	f.got = append(f.got, d)
	return f.outcome, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleMessage_DecodesDescriptor(t *testing.T) {
	saver := &fakeSaver{outcome: service.Saved}
	h := NewHandler(saver, discardLogger())

	data := []byte(`{"remote_file_id":"BAAC","file_name":"a.mkv","file_size":10,"file_type":"video","caption":"c"}`)
	require.NoError(t, h.HandleMessage(context.Background(), data))

	require.Len(t, saver.got, 1)
	assert.Equal(t, model.IngestDescriptor{
		RemoteFileID: "BAAC",
		FileName:     "a.mkv",
		FileSize:     10,
		FileType:     "video",
		Caption:      "c",
	}, saver.got[0])
}

func TestHandleMessage_AckPolicy(t *testing.T) {
	tests := []struct {
		name    string
		outcome service.SaveOutcome
		err     error
		wantErr bool
	}{
		{"saved", service.Saved, nil, false},
		{"already indexed", service.AlreadyIndexed, nil, false},
		{"invalid", service.Invalid, model.ErrValidation, false},
		{"skipped", service.Skipped, assert.AnError, false},
		{"failed", service.Failed, service.ErrStoreUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeSaver{outcome: tt.outcome, err: tt.err}, discardLogger())
			err := h.HandleMessage(context.Background(), []byte(`{"file_name":"x"}`))
			if tt.wantErr {
				assert.ErrorIs(t, err, service.ErrStoreUnavailable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHandleMessage_MalformedIsAcked(t *testing.T) {
	saver := &fakeSaver{}
	h := NewHandler(saver, discardLogger())

	assert.NoError(t, h.HandleMessage(context.Background(), []byte("not json")))
	assert.Empty(t, saver.got)
}
