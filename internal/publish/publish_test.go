package publish

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/mdb/internal/api"
	"github.com/joescharf/mdb/internal/archive"
	"github.com/joescharf/mdb/internal/build"
	"github.com/joescharf/mdb/internal/models"
	"github.com/joescharf/mdb/internal/project"
)

// --- fakes ---

type recordingNotifier struct {
	mu    sync.Mutex
	lines []string
}

func (n *recordingNotifier) add(kind, format string, a ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, kind+": "+fmt.Sprintf(format, a...))
}

func (n *recordingNotifier) Info(format string, a ...any)       { n.add("info", format, a...) }
func (n *recordingNotifier) Success(format string, a ...any)    { n.add("success", format, a...) }
func (n *recordingNotifier) Warning(format string, a ...any)    { n.add("warning", format, a...) }
func (n *recordingNotifier) VerboseLog(format string, a ...any) { n.add("verbose", format, a...) }

type fakePrompter struct {
	confirms []bool
	texts    []string
	selected string

	confirmCalls int
	textCalls    int
	selectCalls  int
}

func (p *fakePrompter) Confirm(string, bool) (bool, error) {
	p.confirmCalls++
	if len(p.confirms) == 0 {
		return false, errors.New("unexpected confirm")
	}
	v := p.confirms[0]
	p.confirms = p.confirms[1:]
	return v, nil
}

func (p *fakePrompter) Text(string, string) (string, error) {
	p.textCalls++
	if len(p.texts) == 0 {
		return "", errors.New("unexpected text prompt")
	}
	v := p.texts[0]
	p.texts = p.texts[1:]
	return v, nil
}

func (p *fakePrompter) Select(_ string, _ []string, def string) (string, error) {
	p.selectCalls++
	if p.selected == "" {
		return def, nil
	}
	return p.selected, nil
}

type scriptedStrategy struct {
	results []error
	calls   int
	seen    []models.ProjectMetadata
}

func (s *scriptedStrategy) Method() models.PublishMethod { return models.PublishMethodFtp }

func (s *scriptedStrategy) Publish(_ context.Context, meta *models.ProjectMetadata) (*models.PublishResult, error) {
	s.calls++
	s.seen = append(s.seen, *meta)
	err := s.results[s.calls-1]
	if err != nil {
		return nil, err
	}
	return &models.PublishResult{Message: "ok", URL: "https://x"}, nil
}

type memHistory struct {
	attempts []*models.Attempt
}

func (h *memHistory) RecordAttempt(_ context.Context, a *models.Attempt) error {
	h.attempts = append(h.attempts, a)
	return nil
}

type fakeGit struct {
	branch    string
	remote    string
	statusErr error
	pullErr   error
	changed   map[string]bool
	calls     []string
}

func (g *fakeGit) Checkout(branch string) error {
	g.calls = append(g.calls, "checkout "+branch)
	g.branch = branch
	return nil
}
func (g *fakeGit) Clone(url, name string) error {
	g.calls = append(g.calls, "clone "+url)
	return nil
}
func (g *fakeGit) Merge(branch string) error {
	g.calls = append(g.calls, "merge "+branch)
	return nil
}
func (g *fakeGit) Push(branch string) error {
	g.calls = append(g.calls, "push "+branch)
	return nil
}
func (g *fakeGit) Commit(file, message string) error {
	g.calls = append(g.calls, "commit "+file)
	return nil
}
func (g *fakeGit) CurrentBranch() (string, error) { return g.branch, nil }
func (g *fakeGit) Status() error {
	g.calls = append(g.calls, "status")
	return g.statusErr
}
func (g *fakeGit) Pull(branch string) error {
	g.calls = append(g.calls, "pull "+branch)
	return g.pullErr
}
func (g *fakeGit) Changed(file string) (bool, error) { return g.changed[file], nil }
func (g *fakeGit) RemoteURL() string                  { return g.remote }

type fakeAPI struct {
	publishErrs []error
	publishes   []api.ProjectHeaders
	bodies      [][]byte
	saves       []api.SaveRequest
	saveHeaders []api.ProjectHeaders
}

func (f *fakeAPI) Publish(_ context.Context, h api.ProjectHeaders, body io.Reader) (*models.PublishResult, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.publishes = append(f.publishes, h)
	f.bodies = append(f.bodies, data)
	if n := len(f.publishes); n <= len(f.publishErrs) && f.publishErrs[n-1] != nil {
		return nil, f.publishErrs[n-1]
	}
	return &models.PublishResult{Message: "ok", URL: "https://x"}, nil
}

func (f *fakeAPI) SaveProject(_ context.Context, h api.ProjectHeaders, body api.SaveRequest) (*models.PublishResult, error) {
	f.saves = append(f.saves, body)
	f.saveHeaders = append(f.saveHeaders, h)
	return &models.PublishResult{Message: "saved", URL: "https://x"}, nil
}

type fakePM struct {
	run func(dir string) error
}

func (f *fakePM) Build(_ context.Context, dir string) (string, error) {
	if f.run == nil {
		return "", nil
	}
	return "", f.run(dir)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func conflict(status int, msg string) error {
	return &api.Error{StatusCode: status, Message: msg}
}

// --- ClassifyError ---

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ConflictClass
	}{
		{"name 409", conflict(409, "project name taken"), NameConflict},
		{"domain 409", conflict(409, "Domain name already in use"), DomainConflict},
		{"domain 403", conflict(403, "domain name is reserved"), DomainConflict},
		{"name 403 is fatal", conflict(403, "project name taken"), Fatal},
		{"other 409", conflict(409, "quota exceeded"), Fatal},
		{"server error", conflict(500, "project name"), Fatal},
		{"plain error", errors.New("project name taken"), Fatal},
		{"wrapped", fmt.Errorf("upload: %w", conflict(409, "project name taken")), NameConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

// --- ResolveMethod ---

func TestResolveMethod(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		p := &fakePrompter{}
		m, err := ResolveMethod(models.PublishMethodPipeline, models.PublishMethodFtp, "git@git.mdbgo.com:joe/shop.git", p)
		require.NoError(t, err)
		assert.Equal(t, models.PublishMethodPipeline, m)
		assert.Zero(t, p.selectCalls)
	})
	t.Run("persisted preference", func(t *testing.T) {
		p := &fakePrompter{}
		m, err := ResolveMethod("", models.PublishMethodPipeline, "", p)
		require.NoError(t, err)
		assert.Equal(t, models.PublishMethodPipeline, m)
		assert.Zero(t, p.selectCalls)
	})
	t.Run("no remote defaults to ftp", func(t *testing.T) {
		p := &fakePrompter{}
		m, err := ResolveMethod("", "", "", p)
		require.NoError(t, err)
		assert.Equal(t, models.PublishMethodFtp, m)
		assert.Zero(t, p.selectCalls)
	})
	t.Run("remote asks", func(t *testing.T) {
		p := &fakePrompter{selected: "pipeline"}
		m, err := ResolveMethod("", "", "git@git.mdbgo.com:joe/shop.git", p)
		require.NoError(t, err)
		assert.Equal(t, models.PublishMethodPipeline, m)
		assert.Equal(t, 1, p.selectCalls)
	})
}

// --- Coordinator ---

func newCoordinator(s Strategy, p *fakePrompter) (*Coordinator, *[]models.ProjectMetadata, *memHistory) {
	var saved []models.ProjectMetadata
	h := &memHistory{}
	return &Coordinator{
		Strategy: s,
		Prompt:   p,
		Save: func(meta *models.ProjectMetadata) ([]string, error) {
			saved = append(saved, *meta)
			return []string{".mdb"}, nil
		},
		History: h,
		Notify:  &recordingNotifier{},
	}, &saved, h
}

func TestCoordinator_Success(t *testing.T) {
	s := &scriptedStrategy{results: []error{nil}}
	p := &fakePrompter{}
	c, saved, h := newCoordinator(s, p)

	res, err := c.Publish(context.Background(), &models.ProjectMetadata{Name: "shop"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Message)
	assert.Equal(t, 1, s.calls)
	assert.Zero(t, p.textCalls)
	assert.Empty(t, *saved)
	require.Len(t, h.attempts, 1)
	assert.Equal(t, models.AttemptSucceeded, h.attempts[0].Outcome)
	assert.Equal(t, "https://x", h.attempts[0].URL)
}

func TestCoordinator_BoundedRetry(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		answer string
		check  func(t *testing.T, m models.ProjectMetadata)
	}{
		{"name conflict", conflict(409, "project name taken"), "new-name", func(t *testing.T, m models.ProjectMetadata) {
			assert.Equal(t, "new-name", m.Name)
		}},
		{"domain conflict", conflict(403, "domain name taken"), "shop.example.org", func(t *testing.T, m models.ProjectMetadata) {
			assert.Equal(t, "shop.example.org", m.Domain)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedStrategy{results: []error{tt.err, nil}}
			p := &fakePrompter{texts: []string{tt.answer}}
			c, saved, h := newCoordinator(s, p)

			_, err := c.Publish(context.Background(), &models.ProjectMetadata{Name: "shop", Domain: "shop.example.com"})
			require.NoError(t, err)
			assert.Equal(t, 2, s.calls)
			assert.Equal(t, 1, p.textCalls)
			require.Len(t, *saved, 1)
			tt.check(t, (*saved)[0])
			tt.check(t, s.seen[1])
			require.Len(t, h.attempts, 2)
			assert.Equal(t, models.AttemptConflict, h.attempts[0].Outcome)
			assert.Equal(t, models.AttemptSucceeded, h.attempts[1].Outcome)
			assert.Equal(t, 2, h.attempts[1].Number)
		})
	}
}

func TestCoordinator_NoDoubleRetry(t *testing.T) {
	s := &scriptedStrategy{results: []error{
		conflict(409, "project name taken"),
		conflict(409, "project name taken"),
		nil,
	}}
	p := &fakePrompter{texts: []string{"new-name", "newer-name"}}
	c, _, h := newCoordinator(s, p)

	_, err := c.Publish(context.Background(), &models.ProjectMetadata{Name: "shop"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project name taken")
	assert.Equal(t, 2, s.calls)
	assert.Equal(t, 1, p.textCalls)
	assert.Len(t, h.attempts, 2)
}

func TestCoordinator_FatalNotRetried(t *testing.T) {
	s := &scriptedStrategy{results: []error{conflict(500, "internal error")}}
	p := &fakePrompter{}
	c, _, h := newCoordinator(s, p)

	_, err := c.Publish(context.Background(), &models.ProjectMetadata{Name: "shop"})
	require.Error(t, err)
	assert.Equal(t, 1, s.calls)
	assert.Zero(t, p.textCalls)
	require.Len(t, h.attempts, 1)
	assert.Equal(t, models.AttemptFailed, h.attempts[0].Outcome)
}

func TestCoordinator_InvalidReplacementAborts(t *testing.T) {
	s := &scriptedStrategy{results: []error{conflict(409, "domain name taken"), nil}}
	p := &fakePrompter{texts: []string{"not a domain"}}
	c, saved, _ := newCoordinator(s, p)

	_, err := c.Publish(context.Background(), &models.ProjectMetadata{Name: "shop"})
	var verr *project.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, s.calls)
	assert.Empty(t, *saved)
}

func TestCoordinator_NilHistory(t *testing.T) {
	s := &scriptedStrategy{results: []error{nil}}
	c, _, _ := newCoordinator(s, &fakePrompter{})
	c.History = nil

	_, err := c.Publish(context.Background(), &models.ProjectMetadata{Name: "shop"})
	require.NoError(t, err)
}

type committingStrategy struct {
	scriptedStrategy
	committed [][]string
}

func (s *committingStrategy) CommitMetadata(_ *models.ProjectMetadata, files []string) error {
	s.committed = append(s.committed, files)
	return nil
}

func TestCoordinator_CommitsResolvedMetadataBeforeRetry(t *testing.T) {
	s := &committingStrategy{scriptedStrategy: scriptedStrategy{results: []error{conflict(409, "project name taken"), nil}}}
	c, _, _ := newCoordinator(s, &fakePrompter{texts: []string{"new-name"}})

	_, err := c.Publish(context.Background(), &models.ProjectMetadata{Name: "shop"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.calls)
	assert.Equal(t, [][]string{{".mdb"}}, s.committed)
}

// --- FtpStrategy ---

func TestFtpStrategy_HeadersByKind(t *testing.T) {
	tests := []struct {
		kind       models.ProjectKind
		technology string
		starter    string
	}{
		{models.ProjectKindBackend, "node12", ""},
		{models.ProjectKindWordPress, "", "blog-starter"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			dir := t.TempDir()
			write(t, filepath.Join(dir, "index.js"), "console.log(1)")
			fa := &fakeAPI{}
			s := &FtpStrategy{
				Builder: &build.Adapter{PM: &fakePM{}, Notify: &recordingNotifier{}},
				Sender:  &archive.Transport{},
				API:     fa,
				Notify:  &recordingNotifier{},
			}
			meta := &models.ProjectMetadata{
				Dir: dir, Name: "svc", PackageName: "svc", Hash: "h1", Kind: tt.kind,
				Technology: "node12", Starter: "blog-starter",
				BuildScript: "tsc",
			}

			_, err := s.Publish(context.Background(), meta)
			require.NoError(t, err)
			require.Len(t, fa.publishes, 1)
			h := fa.publishes[0]
			assert.Equal(t, "svc", h.ProjectName)
			assert.Equal(t, "h1", h.Hash)
			assert.Equal(t, tt.technology, h.Technology)
			assert.Equal(t, tt.starter, h.Starter)
			assert.Contains(t, zipNames(t, fa.bodies[0]), "index.js")
		})
	}
}

func TestFtpStrategy_NoBuildUploadsRoot(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "index.html"), "<h1>hi</h1>")
	write(t, filepath.Join(dir, "node_modules", "x", "index.js"), "x")
	write(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main")

	fa := &fakeAPI{}
	s := &FtpStrategy{
		Builder: &build.Adapter{PM: &fakePM{}, Notify: &recordingNotifier{}},
		Sender:  &archive.Transport{Excludes: archive.DefaultExcludes(".mdb")},
		API:     fa,
		Notify:  &recordingNotifier{},
	}

	_, err := s.Publish(context.Background(), &models.ProjectMetadata{Dir: dir, Name: "site", Kind: models.ProjectKindFrontend})
	require.NoError(t, err)
	names := zipNames(t, fa.bodies[0])
	assert.Contains(t, names, "index.html")
	for _, n := range names {
		assert.False(t, strings.HasPrefix(n, "node_modules"), n)
		assert.False(t, strings.HasPrefix(n, ".git/"), n)
	}
}

func TestFtpStrategy_BuildFailureStops(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "package.json"), `{"name":"site","scripts":{"build":"vite build"}}`)
	meta, err := project.Load(dir, ".mdb", project.Flags{})
	require.NoError(t, err)

	fa := &fakeAPI{}
	s := &FtpStrategy{
		Builder: &build.Adapter{PM: &fakePM{run: func(string) error { return errors.New("exit status 1") }}, Notify: &recordingNotifier{}},
		Sender:  &archive.Transport{},
		API:     fa,
		Notify:  &recordingNotifier{},
	}

	_, err = s.Publish(context.Background(), meta)
	require.Error(t, err)
	assert.Empty(t, fa.publishes)
}

// Angular project with a build script and no domain: the build output is moved
// into dist, uploaded, and the server's message is returned.
func TestScenario_AngularFtpPublish(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "package.json"), `{"name":"shop","scripts":{"build":"ng build"},"dependencies":{"@angular/core":"^17.0.0"}}`)
	write(t, filepath.Join(dir, "angular.json"), `{"projects":{"shop":{"architect":{"build":{"options":{"outputPath":"dist/shop"}}}}}}`)
	write(t, filepath.Join(dir, "src", "main.ts"), "bootstrap()")

	var (
		gotHeaders http.Header
		gotBody    []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/project/publish", r.URL.Path)
		gotHeaders = r.Header.Clone()
		var err error
		gotBody, err = io.ReadAll(r.Body)
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok", "url": "https://x"})
	}))
	defer srv.Close()

	meta, err := project.Load(dir, ".mdb", project.Flags{})
	require.NoError(t, err)
	assert.Empty(t, meta.Domain)

	n := &recordingNotifier{}
	strategy := &FtpStrategy{
		Builder: &build.Adapter{
			PM: &fakePM{run: func(dir string) error {
				write(t, filepath.Join(dir, "dist", "shop", "index.html"), `<html><head><base href="/"></head></html>`)
				return nil
			}},
			Notify:   n,
			BasePath: func(name string) string { return "/" + name },
			Homepage: func(name string) string { return "https://mdbgo.io/" + name + "/" },
		},
		Sender: &archive.Transport{Excludes: archive.DefaultExcludes(".mdb")},
		API:    api.NewClient(srv.URL, "token"),
		Notify: n,
	}
	c := &Coordinator{
		Strategy: strategy,
		Prompt:   &fakePrompter{},
		Save:     func(*models.ProjectMetadata) ([]string, error) { return nil, nil },
		Notify:   n,
	}

	res, err := c.Publish(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Message)
	assert.Equal(t, "https://x", res.URL)

	assert.Equal(t, "shop", gotHeaders.Get(api.HeaderProjectName))
	assert.Equal(t, meta.Hash, gotHeaders.Get(api.HeaderDotMdbHash))
	assert.Equal(t, []string{"index.html"}, zipNames(t, gotBody))
	assert.FileExists(t, filepath.Join(dir, "dist", "index.html"))
}

// Ftp publish rejected with "project name taken": the user supplies new-name,
// metadata is persisted, and the second upload succeeds.
func TestScenario_FtpNameConflict(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "package.json"), `{"name":"shop"}`)
	write(t, filepath.Join(dir, "index.html"), "<h1>shop</h1>")

	fa := &fakeAPI{publishErrs: []error{conflict(http.StatusConflict, "project name taken")}}
	meta, err := project.Load(dir, ".mdb", project.Flags{})
	require.NoError(t, err)

	p := &fakePrompter{texts: []string{"new-name"}}
	c := &Coordinator{
		Strategy: &FtpStrategy{
			Builder: &build.Adapter{PM: &fakePM{}, Notify: &recordingNotifier{}},
			Sender:  &archive.Transport{Excludes: archive.DefaultExcludes(".mdb")},
			API:     fa,
			Notify:  &recordingNotifier{},
		},
		Prompt: p,
		Save:   func(m *models.ProjectMetadata) ([]string, error) { return project.SaveResolved(m, ".mdb") },
		Notify: &recordingNotifier{},
	}

	res, err := c.Publish(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Message)
	assert.Equal(t, 1, p.textCalls)
	require.Len(t, fa.publishes, 2)
	assert.Equal(t, "shop", fa.publishes[0].ProjectName)
	assert.Equal(t, "new-name", fa.publishes[1].ProjectName)

	reloaded, err := project.Load(dir, ".mdb", project.Flags{})
	require.NoError(t, err)
	assert.Equal(t, "new-name", reloaded.Name)
}

// --- PipelineStrategy ---

func newPipeline(g *fakeGit, fa *fakeAPI, p *fakePrompter) (*PipelineStrategy, *int) {
	saves := 0
	return &PipelineStrategy{
		Git:    g,
		API:    fa,
		Prompt: p,
		Notify: &recordingNotifier{},
		Save: func(*models.ProjectMetadata) error {
			saves++
			return nil
		},
		PublicBranch:  "release",
		DotConfigFile: ".mdb",
	}, &saves
}

// On branch feature with public branch release, declining the merge aborts
// before anything is pushed.
func TestScenario_PipelineMergeDeclined(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, CIFile), "stages: []\n")

	g := &fakeGit{branch: "feature"}
	fa := &fakeAPI{}
	s, _ := newPipeline(g, fa, &fakePrompter{confirms: []bool{false}})

	_, err := s.Publish(context.Background(), &models.ProjectMetadata{Dir: dir, Name: "shop"})
	require.Error(t, err)
	assert.EqualError(t, err, "Cannot proceed without merge.")
	assert.ErrorIs(t, err, ErrMergeDeclined)
	for _, c := range g.calls {
		assert.False(t, strings.HasPrefix(c, "push"), c)
	}
	assert.Empty(t, fa.saves)
}

func TestPipelineStrategy_FullSequence(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "package.json"), `{"name":"shop","scripts":{"test":"vitest"}}`)

	g := &fakeGit{
		branch:  "feature",
		remote:  "git@git.mdbgo.com:joe/shop.git",
		pullErr: errors.New("pull failed"),
		changed: map[string]bool{".mdb": true},
	}
	fa := &fakeAPI{}
	s, saves := newPipeline(g, fa, &fakePrompter{confirms: []bool{true, true}})
	meta := &models.ProjectMetadata{
		Dir: dir, Name: "shop", Domain: "shop.example.com", Kind: models.ProjectKindBackend,
		Technology: "node12", TestScript: "vitest",
	}

	res, err := s.Publish(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, "saved", res.Message)

	assert.Equal(t, []string{
		"commit " + CIFile,
		"commit .mdb",
		"push feature",
		"status",
		"checkout release",
		"pull release",
		"merge feature",
		"push release",
		"commit .mdb",
	}, g.calls)
	assert.Equal(t, 2, *saves, "new hash, then default method")
	assert.Equal(t, models.PublishMethodPipeline, meta.PublishMethod)

	require.Len(t, fa.saves, 1)
	assert.Equal(t, "git@git.mdbgo.com:joe/shop.git", fa.saves[0].RepoURL)
	assert.Equal(t, "shop.example.com", fa.saves[0].Domain)
	assert.Equal(t, "node12", fa.saveHeaders[0].Technology)

	data, err := os.ReadFile(filepath.Join(dir, CIFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "npm test")
}

func TestPipelineStrategy_OnPublicBranchWithPreference(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, CIFile), "custom: true\n")
	write(t, filepath.Join(dir, ".mdb"), `{"hash":"h1","publishMethod":"pipeline"}`)

	g := &fakeGit{branch: "release"}
	fa := &fakeAPI{}
	p := &fakePrompter{}
	s, saves := newPipeline(g, fa, p)

	_, err := s.Publish(context.Background(), &models.ProjectMetadata{Dir: dir, Name: "shop", PublishMethod: models.PublishMethodPipeline})
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "push release"}, g.calls)
	assert.Zero(t, p.confirmCalls)
	assert.Zero(t, *saves)

	data, err := os.ReadFile(filepath.Join(dir, CIFile))
	require.NoError(t, err)
	assert.Equal(t, "custom: true\n", string(data))
}

func TestPipelineStrategy_DirtyTreeStops(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, CIFile), "stages: []\n")

	g := &fakeGit{branch: "release", statusErr: errors.New("You have uncommitted changes")}
	fa := &fakeAPI{}
	s, _ := newPipeline(g, fa, &fakePrompter{})

	_, err := s.Publish(context.Background(), &models.ProjectMetadata{Dir: dir, Name: "shop"})
	require.Error(t, err)
	assert.Equal(t, []string{"status"}, g.calls)
	assert.Empty(t, fa.saves)
}

func TestPipelineStrategy_DeclineDefault(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, CIFile), "stages: []\n")
	write(t, filepath.Join(dir, ".mdb"), `{"hash":"h1"}`)

	g := &fakeGit{branch: "release"}
	s, saves := newPipeline(g, &fakeAPI{}, &fakePrompter{confirms: []bool{false}})
	meta := &models.ProjectMetadata{Dir: dir, Name: "shop"}

	_, err := s.Publish(context.Background(), meta)
	require.NoError(t, err)
	assert.Zero(t, *saves)
	assert.Empty(t, meta.PublishMethod)
	assert.NotContains(t, g.calls, "commit .mdb")
}

func TestPipelineStrategy_CommitsModifiedDotConfigWithoutPush(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, CIFile), "stages: []\n")

	g := &fakeGit{branch: "feature", changed: map[string]bool{".mdb": true}}
	s, saves := newPipeline(g, &fakeAPI{}, &fakePrompter{confirms: []bool{false}})

	_, err := s.Publish(context.Background(), &models.ProjectMetadata{Dir: dir, Name: "shop", Hash: "h1"})
	require.ErrorIs(t, err, ErrMergeDeclined)
	assert.Equal(t, 1, *saves)
	assert.Equal(t, []string{"commit .mdb", "status"}, g.calls)
}

func TestPipelineStrategy_CommitMetadata(t *testing.T) {
	g := &fakeGit{}
	s, _ := newPipeline(g, &fakeAPI{}, &fakePrompter{})

	require.NoError(t, s.CommitMetadata(&models.ProjectMetadata{Name: "new-name"}, []string{".mdb", "package.json"}))
	assert.Equal(t, []string{"commit .mdb", "commit package.json"}, g.calls)
}

// --- CI file ---

func TestRenderCIFile(t *testing.T) {
	withTests, err := RenderCIFile(true, "release")
	require.NoError(t, err)
	assert.Contains(t, string(withTests), "image: node:lts")
	assert.Contains(t, string(withTests), "- npm test")
	assert.Contains(t, string(withTests), "- release")

	noop, err := RenderCIFile(false, "main")
	require.NoError(t, err)
	assert.Contains(t, string(noop), "deploy:")
	assert.NotContains(t, string(noop), "image:")
	assert.NotContains(t, string(noop), "test:")
}

func TestEnsureCIFile_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()

	created, err := ensureCIFile(dir, false, "main")
	require.NoError(t, err)
	assert.True(t, created)

	write(t, filepath.Join(dir, CIFile), "edited\n")
	created, err = ensureCIFile(dir, true, "main")
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(filepath.Join(dir, CIFile))
	require.NoError(t, err)
	assert.Equal(t, "edited\n", string(data))
}
