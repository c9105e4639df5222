package user_agent

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// mobilePattern decides the stored device type of an event. The match is
// case-sensitive: "mozilla android" is a desktop signature.
const mobilePattern = `Mobile|Android|iPhone|iPad`

const unknown = "Unknown"

type UserAgent struct {
	UserAgent string
	OS        string
	Browser   string
	Mobile    bool
}

//go:embed database/browsers.yml
//go:embed database/oss.yml
var databaseFiles embed.FS

// Rule maps a pattern to a family name. Rules are tried in file order.
type Rule struct {
	Regex string `yaml:"regex"`
	Name  string `yaml:"name"`
}

// Compiled regex cache
type RegexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *RegexCache {
	return &RegexCache{
		compiled: make(map[string]*pcre.Regexp),
	}
}

func (rc *RegexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	// Double-check pattern
	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

// Global parser instance
var (
	parser *Parser
	once   sync.Once
)

type Parser struct {
	browsers   []Rule
	oss        []Rule
	regexCache *RegexCache
}

func getParser() *Parser {
	once.Do(func() {
		parser = &Parser{
			regexCache: newRegexCache(),
		}

		if data, err := databaseFiles.ReadFile("database/browsers.yml"); err == nil {
			if err := yaml.Unmarshal(data, &parser.browsers); err != nil {
				fmt.Printf("Error parsing browsers.yml: %v\n", err)
			}
		}

		if data, err := databaseFiles.ReadFile("database/oss.yml"); err == nil {
			if err := yaml.Unmarshal(data, &parser.oss); err != nil {
				fmt.Printf("Error parsing oss.yml: %v\n", err)
			}
		}

		// Compile eagerly so the first recorded event does not pay for it
		if _, err := parser.regexCache.get(mobilePattern); err != nil {
			fmt.Printf("Error compiling mobile pattern: %v\n", err)
		}
	})
	return parser
}

func (p *Parser) match(rules []Rule, userAgent string) string {
	for _, rule := range rules {
		if regex, err := p.regexCache.get(rule.Regex); err == nil {
			if regex.MatchString(userAgent) {
				return rule.Name
			}
		}
	}
	return unknown
}

func (p *Parser) isMobile(userAgent string) bool {
	regex, err := p.regexCache.get(mobilePattern)
	if err != nil {
		return containsAny(userAgent, strings.Split(mobilePattern, "|"))
	}
	return regex.MatchString(userAgent)
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// IsMobile reports whether a client signature belongs to a mobile device.
func IsMobile(userAgent string) bool {
	return getParser().isMobile(userAgent)
}

// ParseUserAgent returns display families for a client signature. Only
// Mobile is used when storing events; Browser and OS are for display.
func ParseUserAgent(userAgent string) UserAgent {
	p := getParser()

	return UserAgent{
		UserAgent: userAgent,
		OS:        p.match(p.oss, userAgent),
		Browser:   p.match(p.browsers, userAgent),
		Mobile:    p.isMobile(userAgent),
	}
}
