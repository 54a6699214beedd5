package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"

	"product-media-manager/internal/domain"
	repoMedia "product-media-manager/internal/repository/media"
	"product-media-manager/internal/usecase/sequencer"
	"product-media-manager/internal/watermark"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type fakeMeta struct {
	blobs    map[int64][]byte
	settings map[string]string
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{blobs: make(map[int64][]byte), settings: make(map[string]string)}
}

func (f *fakeMeta) GetMediaBlob(_ context.Context, productID int64) ([]byte, error) {
	blob, ok := f.blobs[productID]
	if !ok {
		return nil, repoMedia.ErrMediaNotFound
	}
	return blob, nil
}

func (f *fakeMeta) SetMediaBlob(_ context.Context, productID int64, data []byte) error {
	f.blobs[productID] = data
	return nil
}

func (f *fakeMeta) DeleteMediaBlob(_ context.Context, productID int64) error {
	delete(f.blobs, productID)
	return nil
}

func (f *fakeMeta) GetAllSettings(_ context.Context) (map[string]string, error) {
	return f.settings, nil
}

func (f *fakeMeta) SetSetting(_ context.Context, name, value string) error {
	f.settings[name] = value
	return nil
}

type fakeFiles struct {
	objects map[domain.ImageHandle][]byte
	deleted []domain.ImageHandle
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: make(map[domain.ImageHandle][]byte)}
}

func (f *fakeFiles) SaveOriginal(_ context.Context, productID int64, filename string, data io.Reader, _ int64, _ string) (domain.ImageHandle, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	handle := domain.ImageHandle(fmt.Sprintf("originals/%d/%s", productID, filename))
	f.objects[handle] = b
	return handle, nil
}

func (f *fakeFiles) SaveWatermark(_ context.Context, original domain.ImageHandle, data []byte, _ string) (domain.ImageHandle, error) {
	handle := domain.ImageHandle("wm/" + string(original))
	f.objects[handle] = data
	return handle, nil
}

func (f *fakeFiles) GetObject(_ context.Context, handle domain.ImageHandle) (io.ReadCloser, error) {
	b, ok := f.objects[handle]
	if !ok {
		return nil, repoMedia.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeFiles) DeleteObject(_ context.Context, handle domain.ImageHandle) error {
	delete(f.objects, handle)
	f.deleted = append(f.deleted, handle)
	return nil
}

func (f *fakeFiles) ResolveURL(handle domain.ImageHandle) string {
	if handle.IsZero() {
		return ""
	}
	return "http://cdn.test/" + string(handle)
}

type fakeProducer struct {
	sent [][]byte
	err  error
}

func (f *fakeProducer) Send(_ context.Context, _ retry.Strategy, _, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, value)
	return nil
}

type fakeRenderer struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeRenderer) Render(source []byte, _ domain.ImageFormat, _ watermark.Config, _ []byte) ([]byte, error) {
	f.calls = append(f.calls, string(source))
	if f.failOn[string(source)] {
		return nil, errors.New("render failed")
	}
	return append([]byte("wm:"), source...), nil
}

type fixture struct {
	uc       *MediaUsecase
	meta     *fakeMeta
	files    *fakeFiles
	producer *fakeProducer
	renderer *fakeRenderer
}

func newFixture() *fixture {
	zlog.Init()
	meta := newFakeMeta()
	files := newFakeFiles()
	producer := &fakeProducer{}
	renderer := &fakeRenderer{failOn: make(map[string]bool)}
	uc := NewMediaUsecase(meta, files, producer, renderer, &zlog.Logger, retry.Strategy{Attempts: 1}, sequencer.WithDelays(0, 0))
	return &fixture{uc: uc, meta: meta, files: files, producer: producer, renderer: renderer}
}

func (f *fixture) upload(t *testing.T, productID int64, filename, body string) RecordView {
	t.Helper()
	view, err := f.uc.UploadImage(context.Background(), productID, filename, "image/jpeg", int64(len(body)), bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return view
}

func TestUploadImage(t *testing.T) {
	f := newFixture()

	view := f.upload(t, 7, "red-shirt.jpg", "img-a")

	assert.Equal(t, 0, view.Index)
	assert.Equal(t, "red-shirt", view.SKU)
	assert.False(t, view.HasWatermark)
	assert.Equal(t, "http://cdn.test/originals/7/red-shirt.jpg", view.OriginalURL)
	require.Len(t, f.producer.sent, 1)

	second := f.upload(t, 7, "b.jpg", "img-b")
	assert.Equal(t, 1, second.Index)
}

func TestUploadImage_UnsupportedType(t *testing.T) {
	f := newFixture()

	_, err := f.uc.UploadImage(context.Background(), 7, "doc.pdf", "application/pdf", 3, bytes.NewReader([]byte("pdf")))
	assert.ErrorIs(t, err, watermark.ErrUnsupportedFormat)
	assert.Empty(t, f.producer.sent)
}

func TestUploadImage_ProducerFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	f.producer.err = errors.New("broker down")

	view, err := f.uc.UploadImage(context.Background(), 7, "a.jpg", "image/jpeg", 5, bytes.NewReader([]byte("img-a")))
	require.NoError(t, err)
	assert.Equal(t, 0, view.Index)
}

func TestGenerateOne(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")

	require.NoError(t, f.uc.GenerateOne(context.Background(), 7, 0))

	views, err := f.uc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].HasWatermark)
	assert.Equal(t, "http://cdn.test/wm/originals/7/a.jpg", views[0].WatermarkURL)
	assert.Equal(t, []byte("wm:img-a"), f.files.objects["wm/originals/7/a.jpg"])
}

func TestGenerateOne_Disabled(t *testing.T) {
	f := newFixture()
	f.meta.settings[watermark.SettingEnabled] = "0"
	f.upload(t, 7, "a.jpg", "img-a")

	err := f.uc.GenerateOne(context.Background(), 7, 0)
	assert.ErrorIs(t, err, watermark.ErrWatermarkDisabled)
}

func TestGenerateOne_UnknownIndex(t *testing.T) {
	f := newFixture()

	err := f.uc.GenerateOne(context.Background(), 7, 3)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGenerateBulk_ContinuesPastFailure(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")
	f.upload(t, 7, "b.jpg", "img-b")
	f.upload(t, 7, "c.jpg", "img-c")
	f.renderer.failOn["img-b"] = true

	summary, err := f.uc.GenerateBulk(context.Background(), 7, nil)
	require.NoError(t, err)

	assert.Equal(t, sequencer.Summary{Total: 3, Succeeded: 2, Failed: 1}, summary)
	assert.Equal(t, []string{"img-a", "img-b", "img-c"}, f.renderer.calls)

	views, err := f.uc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, views[0].HasWatermark)
	assert.False(t, views[1].HasWatermark)
	assert.True(t, views[2].HasWatermark)
}

func TestGenerateBulk_SkipsAlreadyWatermarked(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")
	f.upload(t, 7, "b.jpg", "img-b")
	require.NoError(t, f.uc.GenerateOne(context.Background(), 7, 0))
	f.renderer.calls = nil

	summary, err := f.uc.GenerateBulk(context.Background(), 7, nil)
	require.NoError(t, err)

	assert.Equal(t, sequencer.Summary{Total: 1, Succeeded: 1}, summary)
	assert.Equal(t, []string{"img-b"}, f.renderer.calls)
}

func TestProcessTask(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")

	task := domain.WatermarkTask{ID: "t1", ProductID: 7, OriginalPath: "originals/7/a.jpg"}
	require.NoError(t, f.uc.ProcessTask(context.Background(), task))

	views, err := f.uc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, views[0].HasWatermark)
}

func TestProcessTask_RecordGone(t *testing.T) {
	f := newFixture()

	task := domain.WatermarkTask{ID: "t1", ProductID: 7, OriginalPath: "originals/7/gone.jpg"}
	require.NoError(t, f.uc.ProcessTask(context.Background(), task))
	assert.Empty(t, f.renderer.calls)
}

func TestProcessTask_SkipsWatermarked(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")
	require.NoError(t, f.uc.GenerateOne(context.Background(), 7, 0))
	f.renderer.calls = nil

	task := domain.WatermarkTask{ID: "t1", ProductID: 7, OriginalPath: "originals/7/a.jpg"}
	require.NoError(t, f.uc.ProcessTask(context.Background(), task))
	assert.Empty(t, f.renderer.calls)
}

func TestProcessTask_RenderFailureSwallowed(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")
	f.renderer.failOn["img-a"] = true

	task := domain.WatermarkTask{ID: "t1", ProductID: 7, OriginalPath: "originals/7/a.jpg"}
	require.NoError(t, f.uc.ProcessTask(context.Background(), task))

	views, err := f.uc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, views[0].HasWatermark)
}

func TestReorderSurvivesReload(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")
	f.upload(t, 7, "b.jpg", "img-b")
	f.upload(t, 7, "c.jpg", "img-c")

	require.NoError(t, f.uc.Reorder(context.Background(), 7, []int{2, 0, 1}))

	views, err := f.uc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "c", views[0].SKU)
	assert.Equal(t, "a", views[1].SKU)
	assert.Equal(t, "b", views[2].SKU)
}

func TestUpdateSKU(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")

	require.NoError(t, f.uc.UpdateSKU(context.Background(), 7, 0, "SKU-99"))
	views, _ := f.uc.List(context.Background(), 7)
	assert.Equal(t, "SKU-99", views[0].SKU)

	assert.ErrorIs(t, f.uc.UpdateSKU(context.Background(), 7, 0, ""), ErrEmptySKU)
}

func TestDeleteRecord_NeverTouchesOriginal(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")
	require.NoError(t, f.uc.GenerateOne(context.Background(), 7, 0))

	require.NoError(t, f.uc.DeleteRecord(context.Background(), 7, 0))

	views, err := f.uc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, views)

	assert.Equal(t, []domain.ImageHandle{"wm/originals/7/a.jpg"}, f.files.deleted)
	_, stillThere := f.files.objects["originals/7/a.jpg"]
	assert.True(t, stillThere, "original must survive record deletion")
}

func TestClearAll(t *testing.T) {
	f := newFixture()
	f.upload(t, 7, "a.jpg", "img-a")
	f.upload(t, 7, "b.jpg", "img-b")
	require.NoError(t, f.uc.GenerateOne(context.Background(), 7, 0))

	require.NoError(t, f.uc.ClearAll(context.Background(), 7))

	views, err := f.uc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, origA := f.files.objects["originals/7/a.jpg"]
	_, origB := f.files.objects["originals/7/b.jpg"]
	assert.True(t, origA)
	assert.True(t, origB)
	assert.Equal(t, []domain.ImageHandle{"wm/originals/7/a.jpg"}, f.files.deleted)
}

func TestGallery_PaginatesWatermarkedOnly(t *testing.T) {
	f := newFixture()
	for i := 0; i < 20; i++ {
		f.upload(t, 7, "img-"+strconv.Itoa(i)+".jpg", "body-"+strconv.Itoa(i))
	}
	// Leave one record unwatermarked; it must stay invisible.
	for i := 0; i < 19; i++ {
		require.NoError(t, f.uc.GenerateOne(context.Background(), 7, i))
	}

	page1, err := f.uc.Gallery(context.Background(), 7, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 19, page1.Total)
	assert.Len(t, page1.Items, 15)
	assert.Equal(t, 15, page1.PerPage)
	assert.Equal(t, "http://cdn.test/originals/7/img-0.jpg", page1.Items[0].OriginalURL)
	assert.Equal(t, "http://cdn.test/wm/originals/7/img-0.jpg", page1.Items[0].WatermarkURL)

	again, err := f.uc.Gallery(context.Background(), 7, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, page1, again)

	page2, err := f.uc.Gallery(context.Background(), 7, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 4)

	page3, err := f.uc.Gallery(context.Background(), 7, 3, 0)
	require.NoError(t, err)
	assert.Empty(t, page3.Items)
	assert.Equal(t, 19, page3.Total)
}

func TestSettingsRoundTrip(t *testing.T) {
	f := newFixture()

	cfg, err := f.uc.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, watermark.DefaultConfig(), cfg)

	cfg.Opacity = 40
	cfg.Text = "ACME"
	cfg.Position = domain.AnchorTopLeft
	require.NoError(t, f.uc.SaveSettings(context.Background(), cfg))

	back, err := f.uc.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestSaveSettings_RejectsInvalid(t *testing.T) {
	f := newFixture()

	cfg := watermark.DefaultConfig()
	cfg.Opacity = 150
	assert.Error(t, f.uc.SaveSettings(context.Background(), cfg))
	assert.Empty(t, f.meta.settings)
}

func TestMissingOverlayDegradesToNoop(t *testing.T) {
	f := newFixture()
	cfg := watermark.DefaultConfig()
	cfg.Type = domain.WatermarkImage
	cfg.OverlayRef = "overlays/logo.png"
	require.NoError(t, f.uc.SaveSettings(context.Background(), cfg))

	f.upload(t, 7, "a.jpg", "img-a")
	require.NoError(t, f.uc.GenerateOne(context.Background(), 7, 0))

	views, _ := f.uc.List(context.Background(), 7)
	assert.True(t, views[0].HasWatermark)
}
