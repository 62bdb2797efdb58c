package templater

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailtemplate/internal/render"
	"mailtemplate/internal/templates"
	"mailtemplate/pkg/inliner"
)

// Config tunes a Service.
type Config struct {
	// FallbackLanguage is tried when a template has no document in the
	// requested language. Empty disables the fallback.
	FallbackLanguage string
}

// Request asks for one rendered email body.
type Request struct {
	TemplateName string
	Language     string
	Data         map[string]any
}

// Service renders stored templates into email-ready HTML: styles inlined,
// placeholders substituted. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	store   *templates.Store
	inliner *inliner.Inliner
	config  Config
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for skipped-rule warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig replaces the service configuration.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithFallbackLanguage sets Config.FallbackLanguage.
func WithFallbackLanguage(code string) Option {
	return func(s *Service) {
		s.config.FallbackLanguage = code
	}
}

// New creates a Service over store.
func New(store *templates.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		inliner: inliner.New(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render resolves, inlines and fills the requested template.
// Failures are returned as *StageError.
func (s *Service) Render(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()

	var resolveOpts []templates.ResolveOption
	if s.config.FallbackLanguage != "" {
		resolveOpts = append(resolveOpts, templates.WithFallbackLanguage(s.config.FallbackLanguage))
	}

	out, result, err := s.inline(req.TemplateName, req.Language, resolveOpts...)
	if err != nil {
		return "", err
	}

	body, err := render.Render(out, req.Data)
	if err != nil {
		return "", &StageError{Stage: StageRender, Template: req.TemplateName, Language: req.Language, Err: err}
	}

	s.logger.Debug("template rendered",
		zap.String("template", req.TemplateName),
		zap.String("language", req.Language),
		zap.Int("elements_styled", result.ProcessingStats.ElementsStyled),
		zap.Int("declarations_inlined", result.InlinedStyles),
		zap.Duration("took", time.Since(start)),
	)

	return body, nil
}

// inline runs every stage before substitution and returns the serialized,
// style-inlined document. Entities are decoded at this point, so this is the
// text placeholders are read from.
func (s *Service) inline(name, language string, opts ...templates.ResolveOption) (string, *inliner.InlineResult, error) {
	fail := func(stage Stage, err error) (string, *inliner.InlineResult, error) {
		return "", nil, &StageError{Stage: stage, Template: name, Language: language, Err: err}
	}

	raw, err := s.store.Resolve(name, language, opts...)
	if err != nil {
		return fail(StageResolve, err)
	}

	doc, err := s.inliner.Parse(raw)
	if err != nil {
		return fail(StageParse, err)
	}

	stripped, stylesheet, err := s.inliner.ExtractStyles(doc)
	if err != nil {
		return fail(StageExtract, err)
	}

	inlined, result, err := s.inliner.InlineDocument(stripped, stylesheet)
	if err != nil {
		return fail(StageInline, err)
	}
	for _, w := range result.Warnings {
		s.logger.Warn("css rule skipped",
			zap.String("template", name),
			zap.String("language", language),
			zap.String("selector", w.Selector),
			zap.Error(w.Err),
		)
	}

	out, err := inlined.HTML()
	if err != nil {
		return fail(StageInline, err)
	}

	return out, result, nil
}

// RenderTemplate is Render without a context or request value.
func (s *Service) RenderTemplate(name, language string, data map[string]any) (string, error) {
	return s.Render(context.Background(), Request{TemplateName: name, Language: language, Data: data})
}

// Templates lists the available templates and their languages.
func (s *Service) Templates() map[string][]string {
	return s.store.List()
}

// TemplateNames returns the sorted template names.
func (s *Service) TemplateNames() []string {
	return s.store.Names()
}

// Variables returns the placeholder names Render will look up for a template,
// in order of first appearance.
func (s *Service) Variables(name, language string) ([]string, error) {
	out, _, err := s.inline(name, language)
	if err != nil {
		return nil, err
	}
	return render.Placeholders(out), nil
}
