package extract

import "github.com/Zuo-Peng/convman/internal/locator"

// Locators holds every pattern list the extractors use. Message and content
// lists are unioned; sidebar item candidates are first-match-wins; the
// single-entry lists are grouped selectors whose matches come back in
// document order.
type Locators struct {
	UserMessage      locator.Locator `toml:"user_message"`
	AssistantMessage locator.Locator `toml:"assistant_message"`
	MessageContent   locator.Locator `toml:"message_content"`
	Timestamp        locator.Locator `toml:"timestamp"`
	ChatTitle        locator.Locator `toml:"chat_title"`

	SidebarItem         locator.Locator `toml:"sidebar_item"`
	SidebarContainer    locator.Locator `toml:"sidebar_container"`
	SidebarFallbackItem locator.Locator `toml:"sidebar_fallback_item"`
	SidebarTitle        locator.Locator `toml:"sidebar_title"`
	SidebarDate         locator.Locator `toml:"sidebar_date"`
	SidebarLink         locator.Locator `toml:"sidebar_link"`
}

// DefaultLocators returns the patterns tuned for genspark.ai page builds.
func DefaultLocators() Locators {
	return Locators{
		UserMessage: locator.Locator{
			`[data-testid="user-message"]`,
			`.user-message`,
			`[role="user"]`,
			`.message[data-role="user"]`,
			`.message.user`,
			`.user-bubble`,
			`div[class*="user"]`,
			`div[data-message-type="user"]`,
		},
		AssistantMessage: locator.Locator{
			`[data-testid="assistant-message"]`,
			`[data-testid="ai-message"]`,
			`.assistant-message`,
			`.ai-message`,
			`[role="assistant"]`,
			`.message[data-role="assistant"]`,
			`.message.assistant`,
			`.ai-bubble`,
			`div[class*="assistant"]`,
			`div[class*="ai-response"]`,
			`div[data-message-type="assistant"]`,
			`div[data-message-type="ai"]`,
		},
		MessageContent: locator.Locator{
			`.message-content`,
			`[data-testid="message-content"]`,
			`.content`,
			`.text-content`,
			`p, span, div[class*="text"]`,
		},
		Timestamp: locator.Locator{
			`.timestamp`,
			`[data-testid="timestamp"]`,
			`.message-time`,
			`.time`,
			`time`,
		},
		ChatTitle: locator.Locator{
			`h1`,
			`.chat-title`,
			`[data-testid="chat-title"]`,
			`.conversation-title`,
			`header h1, header h2`,
			`.title`,
		},
		SidebarItem: locator.Locator{
			`.menu-item`,
			`[class*="menu-item"]`,
			`[class*="conversation-item"]`,
			`[class*="chat-item"]`,
			`li[role="menuitem"]`,
			`.sidebar-item`,
			`[data-conversation-id]`,
		},
		SidebarContainer:    locator.Locator{`aside, [role="navigation"], .sidebar, nav`},
		SidebarFallbackItem: locator.Locator{`li, div[role="button"], a`},
		SidebarTitle:        locator.Locator{`h1, h2, h3, h4, h5, h6, .title, [class*="title"], strong, b`},
		SidebarDate:         locator.Locator{`time, .date, [class*="date"], [class*="time"], small`},
		SidebarLink:         locator.Locator{`a`},
	}
}
