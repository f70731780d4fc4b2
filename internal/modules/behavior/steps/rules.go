package steps

import (
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/workpulse/workpulse-backend/internal/logger"
)

// Rule tables are ordered lists, not maps: the first matching entry wins
// and the match order is part of the observable behavior.

type AppRule struct {
	Substring string `yaml:"substring"`
	Category  string `yaml:"category"`
}

type DomainRule struct {
	Domain   string `yaml:"domain"`
	Category string `yaml:"category"`
}

type RuleSet struct {
	AppRules       []AppRule    `yaml:"app_rules"`
	DomainRules    []DomainRule `yaml:"domain_rules"`
	ProjectMarkers []string     `yaml:"project_markers"`
	IDESuffixes    []string     `yaml:"ide_suffixes"`
}

func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		AppRules: []AppRule{
			{Substring: "visual studio code", Category: "Development"},
			{Substring: "vscode", Category: "Development"},
			{Substring: "intellij", Category: "Development"},
			{Substring: "pycharm", Category: "Development"},
			{Substring: "goland", Category: "Development"},
			{Substring: "xcode", Category: "Development"},
			{Substring: "vim", Category: "Development"},
			{Substring: "emacs", Category: "Development"},
			{Substring: "terminal", Category: "Development"},
			{Substring: "iterm", Category: "Development"},
			{Substring: "code", Category: "Development"},
			{Substring: "outlook", Category: "Communication"},
			{Substring: "thunderbird", Category: "Communication"},
			{Substring: "gmail", Category: "Communication"},
			{Substring: "slack", Category: "Communication"},
			{Substring: "teams", Category: "Communication"},
			{Substring: "discord", Category: "Communication"},
			{Substring: "zoom", Category: "Meetings"},
			{Substring: "webex", Category: "Meetings"},
			{Substring: "meet", Category: "Meetings"},
			{Substring: "word", Category: "Productivity"},
			{Substring: "excel", Category: "Productivity"},
			{Substring: "powerpoint", Category: "Productivity"},
			{Substring: "notion", Category: "Productivity"},
			{Substring: "obsidian", Category: "Productivity"},
			{Substring: "chrome", Category: "Browser"},
			{Substring: "firefox", Category: "Browser"},
			{Substring: "safari", Category: "Browser"},
			{Substring: "edge", Category: "Browser"},
			{Substring: "spotify", Category: "Entertainment"},
			{Substring: "netflix", Category: "Entertainment"},
			{Substring: "youtube", Category: "Entertainment"},
		},
		DomainRules: []DomainRule{
			{Domain: "github.com", Category: "Development"},
			{Domain: "gitlab.com", Category: "Development"},
			{Domain: "stackoverflow.com", Category: "Development"},
			{Domain: "pkg.go.dev", Category: "Development"},
			{Domain: "docs.google.com", Category: "Productivity"},
			{Domain: "sheets.google.com", Category: "Productivity"},
			{Domain: "mail.google.com", Category: "Communication"},
			{Domain: "outlook.com", Category: "Communication"},
			{Domain: "slack.com", Category: "Communication"},
			{Domain: "zoom.us", Category: "Meetings"},
			{Domain: "meet.google.com", Category: "Meetings"},
			{Domain: "wikipedia.org", Category: "Research"},
			{Domain: "scholar.google.com", Category: "Research"},
			{Domain: "arxiv.org", Category: "Research"},
			{Domain: "news.ycombinator.com", Category: "News"},
			{Domain: "twitter.com", Category: "Social"},
			{Domain: "linkedin.com", Category: "Social"},
			{Domain: "reddit.com", Category: "Social"},
			{Domain: "youtube.com", Category: "Entertainment"},
			{Domain: "netflix.com", Category: "Entertainment"},
		},
		ProjectMarkers: []string{"Projects/", "projects/", "dev/", "workspace/", "repos/", "src/"},
		IDESuffixes: []string{
			"visual studio code",
			"intellij idea",
			"pycharm",
			"goland",
			"sublime text",
			"atom",
		},
	}
}

// LoadRuleSet returns the defaults, extended by the YAML file at path when
// one is configured. A missing or malformed file falls back to defaults.
func LoadRuleSet(path string, log *logger.Logger) *RuleSet {
	rs := DefaultRuleSet()
	if strings.TrimSpace(path) == "" {
		return rs
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if log != nil {
			log.Warn("Could not read category rules file, using defaults", "path", path, "error", err)
		}
		return rs
	}
	var override RuleSet
	if err := yaml.Unmarshal(raw, &override); err != nil {
		if log != nil {
			log.Warn("Could not parse category rules file, using defaults", "path", path, "error", err)
		}
		return rs
	}
	if len(override.AppRules) > 0 {
		rs.AppRules = override.AppRules
	}
	if len(override.DomainRules) > 0 {
		rs.DomainRules = override.DomainRules
	}
	if len(override.ProjectMarkers) > 0 {
		rs.ProjectMarkers = override.ProjectMarkers
	}
	if len(override.IDESuffixes) > 0 {
		rs.IDESuffixes = override.IDESuffixes
	}
	if log != nil {
		log.Info("Loaded category rules", "path", path,
			"app_rules", len(rs.AppRules), "domain_rules", len(rs.DomainRules))
	}
	return rs
}

// AppCategory matches the app name against the ordered substring rules,
// case-insensitively. First match wins.
func (rs *RuleSet) AppCategory(appName string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		return "", false
	}
	for _, rule := range rs.AppRules {
		if strings.Contains(name, strings.ToLower(rule.Substring)) {
			return rule.Category, true
		}
	}
	return "", false
}

// WebsiteCategory matches the URL's host, with a leading "www." stripped,
// exactly against the domain table.
func (rs *RuleSet) WebsiteCategory(rawURL string) (string, bool) {
	domain := extractDomain(rawURL)
	if domain == "" {
		return "", false
	}
	for _, rule := range rs.DomainRules {
		if domain == strings.ToLower(rule.Domain) {
			return rule.Category, true
		}
	}
	return "", false
}

// ProjectContext applies the window-title and file-path heuristics: an IDE
// title of the form "file - project - <IDE>" yields the project segment,
// and a path segment following a known project-root marker yields that
// segment.
func (rs *RuleSet) ProjectContext(windowTitle, filePath string) (string, bool) {
	if p := rs.projectFromTitle(windowTitle); p != "" {
		return p, true
	}
	if p := rs.projectFromPath(filePath); p != "" {
		return p, true
	}
	return "", false
}

func (rs *RuleSet) projectFromTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	lower := strings.ToLower(title)
	for _, suffix := range rs.IDESuffixes {
		if !strings.HasSuffix(lower, strings.ToLower(suffix)) {
			continue
		}
		parts := strings.Split(title, " - ")
		if len(parts) >= 3 {
			return strings.TrimSpace(parts[len(parts)-2])
		}
		return ""
	}
	return ""
}

func (rs *RuleSet) projectFromPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, marker := range rs.ProjectMarkers {
		idx := strings.Index(normalized, marker)
		if idx < 0 {
			continue
		}
		rest := normalized[idx+len(marker):]
		if seg, _, _ := strings.Cut(rest, "/"); strings.TrimSpace(seg) != "" {
			return strings.TrimSpace(seg)
		}
	}
	return ""
}

func extractDomain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}
