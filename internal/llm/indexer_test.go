package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/sevigo/goframe/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/review-forge/internal/attachments"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/mocks"
)

func TestIndexer_Upsert(t *testing.T) {
	testCases := []struct {
		name      string
		mockSetup func(src *mocks.MockAttachmentSource, vs *mocks.MockVectorStore)
		wantErr   error
	}{
		{
			name: "Success: chunks every readable attachment",
			mockSetup: func(src *mocks.MockAttachmentSource, vs *mocks.MockVectorStore) {
				src.EXPECT().ReadFiles(core.ReviewID("42")).Return([]attachments.File{
					{Name: "notes.txt", Data: []byte("first reference text")},
					{Name: "image.png", Data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
					{Name: "more.txt", Data: []byte("second reference text")},
				}, nil)
				vs.EXPECT().ReplaceDocuments(gomock.Any(), core.ReviewID("42"), gomock.Any()).DoAndReturn(
					func(_ context.Context, _ core.ReviewID, docs []schema.Document) error {
						require.Len(t, docs, 2)
						assert.Equal(t, "first reference text", docs[0].PageContent)
						assert.Equal(t, "notes.txt", docs[0].Metadata["source"])
						assert.Equal(t, "42", docs[0].Metadata["review_id"])
						assert.Equal(t, 0, docs[0].Metadata["chunk"])
						assert.Equal(t, "more.txt", docs[1].Metadata["source"])
						return nil
					},
				)
			},
		},
		{
			name: "No attachments is a no-op",
			mockSetup: func(src *mocks.MockAttachmentSource, _ *mocks.MockVectorStore) {
				src.EXPECT().ReadFiles(core.ReviewID("42")).Return([]attachments.File{}, nil)
			},
		},
		{
			name: "Vector store failure is transient",
			mockSetup: func(src *mocks.MockAttachmentSource, vs *mocks.MockVectorStore) {
				src.EXPECT().ReadFiles(gomock.Any()).Return([]attachments.File{{Name: "a.txt", Data: []byte("text")}}, nil)
				vs.EXPECT().ReplaceDocuments(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("qdrant down"))
			},
			wantErr: core.ErrTransientExternal,
		},
		{
			name: "Attachment read failure",
			mockSetup: func(src *mocks.MockAttachmentSource, _ *mocks.MockVectorStore) {
				src.EXPECT().ReadFiles(gomock.Any()).Return(nil, core.ErrInvalidPath)
			},
			wantErr: core.ErrInvalidPath,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			src := mocks.NewMockAttachmentSource(ctrl)
			vs := mocks.NewMockVectorStore(ctrl)
			tc.mockSetup(src, vs)

			ix := NewIndexer(src, vs, slog.Default())
			err := ix.Upsert(context.Background(), "42")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
