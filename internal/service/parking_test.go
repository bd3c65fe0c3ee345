package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/langchou/parkspot/internal/config"
	"github.com/langchou/parkspot/internal/enrich"
	"github.com/langchou/parkspot/internal/models"
)

// fakeGateway 按查询词/中心返回固定结果，gates 中的调用会阻塞到通道关闭
type fakeGateway struct {
	mu      sync.Mutex
	text    map[string][]models.PlaceRecord
	nearby  map[string][]models.PlaceRecord
	gates   map[string]chan struct{}
	entered chan string
	suggest []models.Suggestion
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		text:    make(map[string][]models.PlaceRecord),
		nearby:  make(map[string][]models.PlaceRecord),
		gates:   make(map[string]chan struct{}),
		entered: make(chan string, 64),
	}
}

func centerKey(c models.LatLng) string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)
}

func (f *fakeGateway) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeGateway) wait(key string) {
	f.mu.Lock()
	ch, ok := f.gates[key]
	f.mu.Unlock()
	select {
	case f.entered <- key:
	default:
	}
	if ok {
		<-ch
	}
}

func (f *fakeGateway) SearchByText(_ context.Context, query string, _ models.LatLng) []models.PlaceRecord {
	f.wait("text:" + query)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text[query]
}

func (f *fakeGateway) SearchNearby(_ context.Context, center models.LatLng, _ float64, _ string) []models.PlaceRecord {
	key := centerKey(center)
	f.wait("nearby:" + key)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nearby[key]
}

func (f *fakeGateway) ResolvePhoto(context.Context, string, int, int) (string, bool) {
	return "", false
}

func (f *fakeGateway) FallbackPhotoURL(string, int, int) (string, bool) {
	return "", false
}

func (f *fakeGateway) Autocomplete(context.Context, string, models.LatLng) []models.Suggestion {
	return f.suggest
}

type fakeRecorder struct {
	mu      sync.Mutex
	logs    []models.SearchLog
	upserts int
}

func (r *fakeRecorder) Create(_ context.Context, log *models.SearchLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeRecorder) UpsertBatch(_ context.Context, parkings []models.ParkingLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts += len(parkings)
	return nil
}

func place(id string, lat, lng float64) models.PlaceRecord {
	return models.PlaceRecord{
		ID:          id,
		DisplayName: "Lot " + id,
		Location:    &models.LatLng{Lat: lat, Lng: lng},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultLat:         28.6139,
		DefaultLng:         77.2090,
		SearchRadiusMeters: 1000,
		SearchType:         "parking",
		SearchTimeout:      5 * time.Second,
		MobileBreakpointPx: 640,
		SessionIdleTTL:     30 * time.Minute,
	}
}

func newTestService(t *testing.T, gw *fakeGateway) *ParkingService {
	t.Helper()
	logger := zaptest.NewLogger(t)
	pipeline := enrich.NewPipeline(gw, enrich.NewSeededSource(7), enrich.Options{Concurrency: 4}, logger)
	return NewParkingService(testConfig(), logger, gw, pipeline, nil)
}

func snapshotIDs(v *models.SessionView) []string {
	out := make([]string, 0, len(v.Parkings))
	for _, p := range v.Parkings {
		out = append(out, p.ID)
	}
	return out
}

func awaitEntered(t *testing.T, gw *fakeGateway, key string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-gw.entered:
			if got == key {
				return
			}
		case <-timeout:
			t.Fatalf("gateway call %s never started", key)
		}
	}
}

func TestCreateSessionWithSeedRunsAmbientSearch(t *testing.T) {
	gw := newFakeGateway()
	seed := models.LatLng{Lat: 28.7041, Lng: 77.1025}
	for i, id := range []string{"A", "B", "C", "D", "E"} {
		gw.nearby[centerKey(seed)] = append(gw.nearby[centerKey(seed)], place(id, 28.7041+float64(i)*0.001, 77.1025))
	}
	svc := newTestService(t, gw)

	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{
		Seed: &models.GeoSeed{Center: seed, Name: "Delhi"},
	})
	require.NoError(t, err)

	assert.Equal(t, seed, view.Center)
	assert.Equal(t, "Delhi", view.PlaceName)
	require.Equal(t, []string{"A", "B", "C", "D", "E"}, snapshotIDs(view))

	want := []models.Category{
		models.CategoryBestValue,
		models.CategoryShortestWalk,
		models.CategoryHighestRated,
		models.CategoryNone,
		models.CategoryNone,
	}
	for i, p := range view.Parkings {
		assert.Equal(t, want[i], p.Category, p.ID)
		assert.LessOrEqual(t, p.AvailableSpots, p.TotalSpots)
	}
}

func TestSeededSessionThenExplicitSearchKeepsCategoriesUnique(t *testing.T) {
	gw := newFakeGateway()
	seed := models.LatLng{Lat: 3, Lng: 3}
	poi := models.LatLng{Lat: 5, Lng: 5}
	gw.nearby[centerKey(seed)] = []models.PlaceRecord{place("A", 3, 3), place("B", 3.001, 3), place("C", 3.002, 3)}
	gw.text["mall"] = []models.PlaceRecord{place("poi", poi.Lat, poi.Lng)}
	gw.nearby[centerKey(poi)] = []models.PlaceRecord{place("X", 5, 5), place("Y", 5.001, 5), place("Z", 5.002, 5)}
	svc := newTestService(t, gw)

	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{
		Seed: &models.GeoSeed{Center: seed},
	})
	require.NoError(t, err)

	out, err := svc.ExplicitSearch(context.Background(), view.SessionID, "mall")
	require.NoError(t, err)
	require.Equal(t, []string{"X", "Y", "Z", "A", "B", "C"}, snapshotIDs(out.View))

	byCategory := map[models.Category][]string{}
	for _, p := range out.View.Parkings {
		if p.Category != models.CategoryNone {
			byCategory[p.Category] = append(byCategory[p.Category], p.ID)
		}
	}
	assert.Equal(t, map[models.Category][]string{
		models.CategoryBestValue:    {"X"},
		models.CategoryShortestWalk: {"Y"},
		models.CategoryHighestRated: {"Z"},
	}, byCategory)
}

func TestCreateSessionWithoutSeedUsesDefaultCenter(t *testing.T) {
	svc := newTestService(t, newFakeGateway())

	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{ViewportWidth: 375})
	require.NoError(t, err)

	assert.Equal(t, models.LatLng{Lat: 28.6139, Lng: 77.2090}, view.Center)
	assert.Empty(t, view.Parkings)
	assert.Equal(t, models.DeviceMobile, view.Selection.DeviceClass)
	assert.Equal(t, models.PresentationNone, view.Selection.PresentationMode)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestExplicitSearchLaterInitiatedWins(t *testing.T) {
	gw := newFakeGateway()
	gw.text["alpha"] = []models.PlaceRecord{place("poi-a", 10, 10)}
	gw.text["beta"] = []models.PlaceRecord{place("poi-b", 20, 20)}
	gw.nearby[centerKey(models.LatLng{Lat: 10, Lng: 10})] = []models.PlaceRecord{place("a1", 10, 10), place("a2", 10.001, 10)}
	gw.nearby[centerKey(models.LatLng{Lat: 20, Lng: 20})] = []models.PlaceRecord{place("b1", 20, 20)}
	release := gw.gate("text:alpha")

	rec := &fakeRecorder{}
	svc := newTestService(t, gw)
	svc.SetRecorders(rec, rec)

	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)
	id := view.SessionID

	type result struct {
		out *SearchOutcome
		err error
	}
	slow := make(chan result, 1)
	go func() {
		out, err := svc.ExplicitSearch(context.Background(), id, "alpha")
		slow <- result{out, err}
	}()
	awaitEntered(t, gw, "text:alpha")

	fast, err := svc.ExplicitSearch(context.Background(), id, "beta")
	require.NoError(t, err)
	assert.False(t, fast.Stale)
	assert.Equal(t, []string{"b1"}, snapshotIDs(fast.View))

	close(release)
	res := <-slow
	require.NoError(t, res.err)
	assert.True(t, res.out.Stale)
	assert.Zero(t, res.out.Added)
	assert.Less(t, res.out.Token, fast.Token)

	final, err := svc.View(id, models.SortPopularity)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, snapshotIDs(final))
	assert.Equal(t, models.LatLng{Lat: 20, Lng: 20}, final.Center)

	// 过期的搜索不落库
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.logs, 1)
	assert.Equal(t, "beta", rec.logs[0].Query)
	assert.Equal(t, 1, rec.upserts)
}

func TestAmbientSearchLatestPanWins(t *testing.T) {
	gw := newFakeGateway()
	first := models.LatLng{Lat: 1, Lng: 1}
	second := models.LatLng{Lat: 2, Lng: 2}
	gw.nearby[centerKey(first)] = []models.PlaceRecord{place("p1", 1, 1)}
	gw.nearby[centerKey(second)] = []models.PlaceRecord{place("p2", 2, 2)}
	release := gw.gate("nearby:" + centerKey(first))

	svc := newTestService(t, gw)
	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)
	id := view.SessionID

	done := make(chan *SearchOutcome, 1)
	go func() {
		out, err := svc.AmbientSearch(context.Background(), id, first)
		assert.NoError(t, err)
		done <- out
	}()
	awaitEntered(t, gw, "nearby:"+centerKey(first))

	out, err := svc.AmbientSearch(context.Background(), id, second)
	require.NoError(t, err)
	assert.False(t, out.Stale)

	close(release)
	stale := <-done
	require.NotNil(t, stale)
	assert.True(t, stale.Stale)

	final, err := svc.View(id, models.SortPopularity)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, snapshotIDs(final))
	assert.Equal(t, second, final.Center)
}

func TestAmbientAndExplicitTokensAreIndependent(t *testing.T) {
	gw := newFakeGateway()
	pan := models.LatLng{Lat: 3, Lng: 3}
	gw.text["mall"] = []models.PlaceRecord{place("poi", 5, 5)}
	gw.nearby[centerKey(models.LatLng{Lat: 5, Lng: 5})] = []models.PlaceRecord{place("x", 5, 5)}
	gw.nearby[centerKey(pan)] = []models.PlaceRecord{place("z", 3, 3)}
	release := gw.gate("nearby:" + centerKey(pan))

	svc := newTestService(t, gw)
	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)
	id := view.SessionID

	done := make(chan *SearchOutcome, 1)
	go func() {
		out, err := svc.AmbientSearch(context.Background(), id, pan)
		assert.NoError(t, err)
		done <- out
	}()
	awaitEntered(t, gw, "nearby:"+centerKey(pan))

	_, err = svc.ExplicitSearch(context.Background(), id, "mall")
	require.NoError(t, err)

	close(release)
	amb := <-done
	assert.False(t, amb.Stale)
	assert.Equal(t, []string{"x", "z"}, snapshotIDs(amb.View))
}

func TestExplicitThenAmbientMergesWithoutDuplicates(t *testing.T) {
	gw := newFakeGateway()
	poi := models.LatLng{Lat: 40.7, Lng: -74.0}
	pan := models.LatLng{Lat: 40.71, Lng: -74.01}
	gw.text["museum"] = []models.PlaceRecord{place("poi", poi.Lat, poi.Lng)}
	gw.nearby[centerKey(poi)] = []models.PlaceRecord{place("X", 40.7, -74.0), place("Y", 40.701, -74.0)}
	gw.nearby[centerKey(pan)] = []models.PlaceRecord{place("Y", 40.701, -74.0), place("Z", 40.71, -74.01)}

	svc := newTestService(t, gw)
	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)
	id := view.SessionID

	out, err := svc.ExplicitSearch(context.Background(), id, "museum")
	require.NoError(t, err)
	require.Equal(t, []string{"X", "Y"}, snapshotIDs(out.View))
	assert.Equal(t, 2, out.ResultCount)
	assert.Equal(t, 2, out.Added)

	amb, err := svc.AmbientSearch(context.Background(), id, pan)
	require.NoError(t, err)
	assert.Equal(t, 2, amb.ResultCount)
	assert.Equal(t, 1, amb.Added)
	require.Equal(t, []string{"X", "Y", "Z"}, snapshotIDs(amb.View))

	byID := make(map[string]models.Category)
	for _, p := range amb.View.Parkings {
		byID[p.ID] = p.Category
	}
	assert.Equal(t, models.CategoryBestValue, byID["X"])
	assert.Equal(t, models.CategoryShortestWalk, byID["Y"])
	assert.Equal(t, models.CategoryNone, byID["Z"])
}

func TestExplicitSearchWithoutLocatedResultClearsSet(t *testing.T) {
	gw := newFakeGateway()
	gw.text["somewhere"] = []models.PlaceRecord{place("poi", 1, 1)}
	gw.nearby[centerKey(models.LatLng{Lat: 1, Lng: 1})] = []models.PlaceRecord{place("p", 1, 1)}
	gw.text["nowhere"] = []models.PlaceRecord{{ID: "ghost", DisplayName: "Ghost"}}

	svc := newTestService(t, gw)
	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)
	id := view.SessionID

	_, err = svc.ExplicitSearch(context.Background(), id, "somewhere")
	require.NoError(t, err)

	out, err := svc.ExplicitSearch(context.Background(), id, "nowhere")
	require.NoError(t, err)
	assert.False(t, out.Stale)
	assert.Empty(t, out.View.Parkings)
	assert.Equal(t, models.LatLng{Lat: 1, Lng: 1}, out.View.Center)
}

func TestExplicitSearchValidation(t *testing.T) {
	svc := newTestService(t, newFakeGateway())

	_, err := svc.ExplicitSearch(context.Background(), "missing", "parking")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)
	_, err = svc.ExplicitSearch(context.Background(), view.SessionID, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.AmbientSearch(context.Background(), view.SessionID, models.LatLng{Lat: 91, Lng: 0})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestExplicitSearchIgnoresCallerCancellation(t *testing.T) {
	gw := newFakeGateway()
	gw.text["slow"] = []models.PlaceRecord{place("poi", 1, 1)}
	gw.nearby[centerKey(models.LatLng{Lat: 1, Lng: 1})] = []models.PlaceRecord{place("p", 1, 1)}
	release := gw.gate("text:slow")

	svc := newTestService(t, gw)
	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *SearchOutcome, 1)
	go func() {
		out, err := svc.ExplicitSearch(ctx, view.SessionID, "slow")
		assert.NoError(t, err)
		done <- out
	}()
	awaitEntered(t, gw, "text:slow")
	cancel()
	close(release)

	out := <-done
	assert.False(t, out.Stale)
	assert.Equal(t, []string{"p"}, snapshotIDs(out.View))
}

func seededSession(t *testing.T, width int) (*ParkingService, string) {
	t.Helper()
	gw := newFakeGateway()
	gw.text["station"] = []models.PlaceRecord{place("poi", 1, 1)}
	gw.nearby[centerKey(models.LatLng{Lat: 1, Lng: 1})] = []models.PlaceRecord{place("X", 1, 1), place("Y", 1.001, 1)}

	svc := newTestService(t, gw)
	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{ViewportWidth: width})
	require.NoError(t, err)
	_, err = svc.ExplicitSearch(context.Background(), view.SessionID, "station")
	require.NoError(t, err)
	return svc, view.SessionID
}

func TestGesturesOnMobile(t *testing.T) {
	svc, id := seededSession(t, 375)
	ctx := context.Background()

	view, err := svc.HandleGesture(ctx, id, GestureInput{Gesture: "list_row_tap", ParkingID: "X"})
	require.NoError(t, err)
	assert.Equal(t, models.PresentationCarouselHighlight, view.Selection.PresentationMode)
	assert.Equal(t, models.TabMap, view.Selection.ActiveTab)
	require.NotNil(t, view.Selected)
	assert.Equal(t, "X", view.Selected.ID)

	view, err = svc.HandleGesture(ctx, id, GestureInput{Gesture: "carousel_card_tap", ParkingID: "Y"})
	require.NoError(t, err)
	assert.Equal(t, models.PresentationFullModal, view.Selection.PresentationMode)
	assert.Equal(t, "Y", view.Selection.SelectedParkingID)

	view, err = svc.HandleGesture(ctx, id, GestureInput{Gesture: "close_detail"})
	require.NoError(t, err)
	assert.Equal(t, models.PresentationNone, view.Selection.PresentationMode)
	assert.Equal(t, models.TabList, view.Selection.ActiveTab)
	assert.Nil(t, view.Selected)

	view, err = svc.HandleGesture(ctx, id, GestureInput{Gesture: "select_tab", Tab: "map"})
	require.NoError(t, err)
	assert.Equal(t, models.TabMap, view.Selection.ActiveTab)
}

func TestGesturesOnDesktop(t *testing.T) {
	svc, id := seededSession(t, 1280)
	ctx := context.Background()

	view, err := svc.HandleGesture(ctx, id, GestureInput{Gesture: "map_marker_tap", ParkingID: "Y"})
	require.NoError(t, err)
	assert.Equal(t, models.PresentationInlinePanel, view.Selection.PresentationMode)
	assert.Equal(t, models.TabList, view.Selection.ActiveTab)

	view, err = svc.HandleGesture(ctx, id, GestureInput{Gesture: "select_tab", Tab: "map"})
	require.NoError(t, err)
	assert.Equal(t, models.TabList, view.Selection.ActiveTab)
}

func TestGestureErrors(t *testing.T) {
	svc, id := seededSession(t, 375)
	ctx := context.Background()

	_, err := svc.HandleGesture(ctx, id, GestureInput{Gesture: "double_tap", ParkingID: "X"})
	assert.ErrorIs(t, err, ErrUnknownGesture)

	_, err = svc.HandleGesture(ctx, id, GestureInput{Gesture: "list_row_tap", ParkingID: "nope"})
	assert.ErrorIs(t, err, ErrParkingNotFound)

	_, err = svc.HandleGesture(ctx, id, GestureInput{Gesture: "select_tab", Tab: "grid"})
	assert.ErrorIs(t, err, ErrInvalidTab)

	_, err = svc.HandleGesture(ctx, "missing", GestureInput{Gesture: "close_detail"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNewExplicitSearchResetsSelection(t *testing.T) {
	svc, id := seededSession(t, 1280)
	ctx := context.Background()

	_, err := svc.HandleGesture(ctx, id, GestureInput{Gesture: "list_row_tap", ParkingID: "X"})
	require.NoError(t, err)

	out, err := svc.ExplicitSearch(ctx, id, "station")
	require.NoError(t, err)
	assert.False(t, out.View.Selection.HasSelection())
	assert.Equal(t, models.PresentationNone, out.View.Selection.PresentationMode)
}

func TestViewportChangeKeepsSelection(t *testing.T) {
	svc, id := seededSession(t, 1280)
	ctx := context.Background()

	_, err := svc.HandleGesture(ctx, id, GestureInput{Gesture: "list_row_tap", ParkingID: "X"})
	require.NoError(t, err)

	view, err := svc.Viewport(ctx, id, 375)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceMobile, view.Selection.DeviceClass)
	assert.Equal(t, "X", view.Selection.SelectedParkingID)
	assert.Equal(t, models.PresentationInlinePanel, view.Selection.PresentationMode)
}

func TestSortIsViewOnly(t *testing.T) {
	svc, id := seededSession(t, 1280)

	byPrice, err := svc.View(id, models.SortPrice)
	require.NoError(t, err)
	for i := 1; i < len(byPrice.Parkings); i++ {
		assert.LessOrEqual(t, byPrice.Parkings[i-1].Price, byPrice.Parkings[i].Price)
	}

	popular, err := svc.View(id, models.SortPopularity)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, snapshotIDs(popular))
	assert.Equal(t, byPrice.Version, popular.Version)
}

func TestParkingLookup(t *testing.T) {
	svc, id := seededSession(t, 1280)

	p, err := svc.Parking(id, "Y")
	require.NoError(t, err)
	assert.Equal(t, "Y", p.ID)
	assert.NotEmpty(t, p.AvailabilityLabel)

	_, err = svc.Parking(id, "Q")
	assert.True(t, errors.Is(err, ErrParkingNotFound))
}

func TestSubscribeReceivesSearchViews(t *testing.T) {
	svc, id := seededSession(t, 1280)
	updates := svc.Subscribe()

	_, err := svc.ExplicitSearch(context.Background(), id, "station")
	require.NoError(t, err)

	select {
	case v := <-updates:
		assert.Equal(t, id, v.SessionID)
		assert.Len(t, v.Parkings, 2)
	case <-time.After(time.Second):
		t.Fatal("no view published")
	}
}

func TestEvictIdleSessions(t *testing.T) {
	svc := newTestService(t, newFakeGateway())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stale, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	fresh, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, svc.evictIdle())

	_, err = svc.GetSession(stale.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.GetSession(fresh.SessionID)
	assert.NoError(t, err)
}

func TestCloseSession(t *testing.T) {
	svc := newTestService(t, newFakeGateway())
	view, err := svc.CreateSession(context.Background(), CreateSessionOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.CloseSession(view.SessionID))
	assert.ErrorIs(t, svc.CloseSession(view.SessionID), ErrSessionNotFound)
}

func TestAutocompleteRequiresThreeCharacters(t *testing.T) {
	gw := newFakeGateway()
	gw.suggest = []models.Suggestion{{PlaceID: "p1", Text: "Connaught Place"}}
	svc := newTestService(t, gw)

	assert.Empty(t, svc.Autocomplete(context.Background(), "", "co"))
	got := svc.Autocomplete(context.Background(), "", "con")
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].PlaceID)
}

func TestStartStop(t *testing.T) {
	svc := newTestService(t, newFakeGateway())
	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Start(context.Background()))
	svc.Stop()
	svc.Stop()
}

func TestHandleWSMessage(t *testing.T) {
	svc, id := seededSession(t, 1280)

	err := svc.HandleWSMessage(id, "gesture", json.RawMessage(`{"gesture":"list_row_tap","parking_id":"X"}`))
	require.NoError(t, err)
	view, err := svc.View(id, models.SortPopularity)
	require.NoError(t, err)
	assert.Equal(t, models.PresentationInlinePanel, view.Selection.PresentationMode)

	assert.Error(t, svc.HandleWSMessage(id, "ping", nil))
	assert.Error(t, svc.HandleWSMessage(id, "gesture", json.RawMessage(`not json`)))
	assert.ErrorIs(t, svc.HandleWSMessage(id, "gesture", json.RawMessage(`{"gesture":"swipe","parking_id":"X"}`)), ErrUnknownGesture)

	initial, ok := svc.InitView(id).(*models.SessionView)
	require.True(t, ok)
	assert.Equal(t, id, initial.SessionID)
	assert.Nil(t, svc.InitView("missing"))
}
