package moderation

// Messages holds every user-facing text. Defaults are Persian.
type Messages struct {
	Prompt          string `yaml:"prompt"`
	GetLinkButton   string `yaml:"get_link_button"`
	SubscribeButton string `yaml:"subscribe_button"`
	OpenLinkButton  string `yaml:"open_link_button"`
	LinkReply       string `yaml:"link_reply"`
	LinkSent        string `yaml:"link_sent"`
	NotForYou       string `yaml:"not_for_you"`
	LinkFirst       string `yaml:"link_first"`
	Granted         string `yaml:"granted"`
	GrantedEdit     string `yaml:"granted_edit"`
	Unsupported     string `yaml:"unsupported"`
	AnonymousUser   string `yaml:"anonymous_user"`
}

// DefaultMessages returns the stock texts.
func DefaultMessages() Messages {
	return Messages{
		Prompt:          "برای ارسال پیام، اول «گرفتن لینک کانال یوتیوب» رو بزن و بعد «سابسکرایب کردم».",
		GetLinkButton:   "📺 گرفتن لینک کانال یوتیوب",
		SubscribeButton: "✅ سابسکرایب کردم",
		OpenLinkButton:  "باز کردن کانال یوتیوب",
		LinkReply:       "📺 اینم کانال:",
		LinkSent:        "لینک برایت ارسال شد.",
		NotForYou:       "این دکمه برای تو نیست.",
		LinkFirst:       "اول لینک کانال رو بگیر.",
		Granted:         "دسترسی فعال شد!",
		GrantedEdit:     "🎉 حالا می‌تونی پیام بدی.",
		Unsupported:     "این دکمه پشتیبانی نمی‌شود.",
		AnonymousUser:   "کاربر",
	}
}

// WithDefaults fills empty fields from DefaultMessages.
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.Prompt, d.Prompt)
	fill(&m.GetLinkButton, d.GetLinkButton)
	fill(&m.SubscribeButton, d.SubscribeButton)
	fill(&m.OpenLinkButton, d.OpenLinkButton)
	fill(&m.LinkReply, d.LinkReply)
	fill(&m.LinkSent, d.LinkSent)
	fill(&m.NotForYou, d.NotForYou)
	fill(&m.LinkFirst, d.LinkFirst)
	fill(&m.Granted, d.Granted)
	fill(&m.GrantedEdit, d.GrantedEdit)
	fill(&m.Unsupported, d.Unsupported)
	fill(&m.AnonymousUser, d.AnonymousUser)
	return m
}
