// pkg/publisher/plan.go

package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/changelog"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/classifier"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/evidence"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/manifest"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/version"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Plan is a fully computed release. Nothing has been written yet.
type Plan struct {
	Previous version.Triple
	Next     version.Triple
	Decision classifier.Decision
	Report   *evidence.Report
	Entry    changelog.Entry

	ManifestData  []byte
	ChangelogData []byte
	// ChangelogMissing means the changelog file does not exist yet.
	ChangelogMissing bool
}

// Tag is the release tag name.
func (p *Plan) Tag() string { return p.Next.Tag() }

// CommitMessage is the bump commit's message.
func (p *Plan) CommitMessage() string { return "chore: bump version to " + p.Next.String() }

// loadManifest reads and parses the working-tree manifest and its version.
func (p *Publisher) loadManifest(ctx context.Context) (*manifest.Manifest, version.Triple, error) {
	data, err := p.FS.Read(ctx, p.ManifestPath)
	if err != nil {
		return nil, version.Triple{}, cerr.Wrapf(err, "read manifest %s", p.ManifestPath)
	}
	m, err := manifest.Parse(p.ManifestPath, data)
	if err != nil {
		return nil, version.Triple{}, err
	}
	current, err := version.Parse(m.Version)
	if err != nil {
		return nil, version.Triple{}, err
	}
	return m, current, nil
}

// Plan runs every read-only stage: version reader, evidence probes,
// classifier, mutator and synthesizer.
func (p *Publisher) Plan(ctx context.Context, opts Options) (*Plan, error) {
	logger := otelzap.Ctx(ctx)

	m, current, err := p.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	report := p.collector().Collect(ctx, m)
	decision := classifier.Classify(opts.Forced, report.Evidence)
	next := version.Next(current, decision.Magnitude)

	logger.Info("Release classified",
		zap.String("current", current.String()),
		zap.String("next", next.String()),
		zap.String("magnitude", decision.Magnitude.String()),
		zap.String("reason", string(decision.Reason)))

	entry := changelog.Synthesize(changelog.Input{
		Report:    report,
		Version:   next,
		Magnitude: decision.Magnitude,
		Date:      p.now(),
		Message:   opts.Message,
	})

	m.SetVersion(next.String())
	manifestData, err := m.Marshal()
	if err != nil {
		return nil, cerr.Wrapf(err, "encode manifest %s", p.ManifestPath)
	}

	plan := &Plan{
		Previous:     current,
		Next:         next,
		Decision:     decision,
		Report:       report,
		Entry:        entry,
		ManifestData: manifestData,
	}

	existing, err := p.FS.Read(ctx, p.ChangelogPath)
	switch {
	case errors.Is(err, fileops.ErrNotFound):
		plan.ChangelogMissing = true
		logger.Info("Changelog not found, a new one will be created", zap.String("path", p.ChangelogPath))
	case err != nil:
		return nil, cerr.Wrapf(err, "read changelog %s", p.ChangelogPath)
	}
	doc := changelog.Parse(string(existing))
	doc.Insert(entry)
	plan.ChangelogData = []byte(doc.Render())

	return plan, nil
}

func (p *Publisher) collector() *evidence.Collector {
	c := evidence.NewCollector(p.Backend, p.ManifestPath)
	if p.Window > 0 {
		c.Window = p.Window
	}
	if p.HeadlineCommits > 0 {
		c.HeadlineCommits = p.HeadlineCommits
	}
	return c
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
