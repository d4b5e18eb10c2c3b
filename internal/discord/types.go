// Package discord is a minimal Discord API client: the REST calls and the
// gateway connection the bot needs, nothing more.
package discord

import "strconv"

// Snowflake is a Discord ID. The API transports them as strings to protect
// them from JSON number precision loss; internally they are int64.
type Snowflake int64

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Snowflake) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" {
		*s = 0
		return nil
	}
	if len(str) >= 2 && str[0] == '"' {
		str = str[1 : len(str)-1]
	}
	if str == "" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return err
	}
	*s = Snowflake(v)
	return nil
}

// User is a Discord user as far as the bot cares.
type User struct {
	ID       Snowflake `json:"id"`
	Username string    `json:"username"`
	Bot      bool      `json:"bot,omitempty"`
}

// Member wraps a user within a guild.
type Member struct {
	User User `json:"user"`
}

// Emoji is a unicode or guild custom emoji.
type Emoji struct {
	ID       Snowflake `json:"id,omitempty"`
	Name     string    `json:"name"`
	Animated bool      `json:"animated,omitempty"`
}

// Display renders the emoji the way it appears in message text: the bare
// unicode character, or the `<:name:id>` / `<a:name:id>` tag for custom
// emoji. This is the canonical form slots are keyed by.
func (e Emoji) Display() string {
	if e.ID == 0 {
		return e.Name
	}
	if e.Animated {
		return "<a:" + e.Name + ":" + e.ID.String() + ">"
	}
	return "<:" + e.Name + ":" + e.ID.String() + ">"
}

// Reaction renders the emoji for reaction endpoints, which take `name:id`
// for custom emoji and the raw character otherwise.
func (e Emoji) Reaction() string {
	if e.ID == 0 {
		return e.Name
	}
	return e.Name + ":" + e.ID.String()
}

// ParseEmoji converts a display-form emoji string back into an Emoji.
func ParseEmoji(display string) Emoji {
	if len(display) < 4 || display[0] != '<' || display[len(display)-1] != '>' {
		return Emoji{Name: display}
	}
	inner := display[1 : len(display)-1]
	animated := false
	if inner[0] == 'a' {
		animated = true
		inner = inner[1:]
	}
	// inner is now ":name:id"
	if inner == "" || inner[0] != ':' {
		return Emoji{Name: display}
	}
	inner = inner[1:]
	sep := -1
	for i := len(inner) - 1; i >= 0; i-- {
		if inner[i] == ':' {
			sep = i
			break
		}
	}
	if sep < 0 {
		return Emoji{Name: display}
	}
	id, err := strconv.ParseInt(inner[sep+1:], 10, 64)
	if err != nil {
		return Emoji{Name: display}
	}
	return Emoji{ID: Snowflake(id), Name: inner[:sep], Animated: animated}
}

// Message is a channel message.
type Message struct {
	ID        Snowflake `json:"id"`
	ChannelID Snowflake `json:"channel_id"`
	GuildID   Snowflake `json:"guild_id,omitempty"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
}

// Channel types the bot distinguishes.
const (
	ChannelTypeDM           = 1
	ChannelTypePublicThread = 11
)

// Channel is a channel, DM channel, or thread.
type Channel struct {
	ID             Snowflake       `json:"id"`
	Type           int             `json:"type"`
	Name           string          `json:"name,omitempty"`
	ThreadMetadata *ThreadMetadata `json:"thread_metadata,omitempty"`
}

// ThreadMetadata carries the thread state the bot cares about.
type ThreadMetadata struct {
	Archived bool `json:"archived"`
}

// Embed is a rich message embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedField is one field within an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Component types and button styles used for the calendar link button.
const (
	ComponentActionRow = 1
	ComponentButton    = 2
	ButtonStyleLink    = 5
)

// Component is a message component; the bot only emits action rows holding
// link buttons.
type Component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	URL        string      `json:"url,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// LinkButtonRow builds an action row with a single link button.
func LinkButtonRow(label, url string) Component {
	return Component{
		Type: ComponentActionRow,
		Components: []Component{{
			Type:  ComponentButton,
			Style: ButtonStyleLink,
			Label: label,
			URL:   url,
		}},
	}
}

// MessageSend is the create/edit message payload.
type MessageSend struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Application command option types used by the bot (all string options).
const (
	CommandOptionString = 3
	CommandTypeSlash    = 1
)

// ApplicationCommand declares a slash command.
type ApplicationCommand struct {
	Type        int             `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

// CommandOption declares a slash command parameter.
type CommandOption struct {
	Type        int             `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Required    bool            `json:"required,omitempty"`
	Choices     []CommandChoice `json:"choices,omitempty"`
}

// CommandChoice is a fixed option value.
type CommandChoice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Interaction types and response types.
const (
	InteractionTypeCommand = 2

	ResponseChannelMessage = 4

	// MessageFlagEphemeral makes an interaction response visible only to the
	// invoking user.
	MessageFlagEphemeral = 1 << 6
)

// Interaction is an incoming slash command invocation.
type Interaction struct {
	ID            Snowflake        `json:"id"`
	ApplicationID Snowflake        `json:"application_id"`
	Type          int              `json:"type"`
	Token         string           `json:"token"`
	GuildID       Snowflake        `json:"guild_id"`
	ChannelID     Snowflake        `json:"channel_id"`
	Member        *Member          `json:"member,omitempty"`
	User          *User            `json:"user,omitempty"`
	Data          *InteractionData `json:"data,omitempty"`
}

// Sender returns the invoking user regardless of guild or DM context.
func (i *Interaction) Sender() User {
	if i.Member != nil {
		return i.Member.User
	}
	if i.User != nil {
		return *i.User
	}
	return User{}
}

// InteractionData carries the command name and options.
type InteractionData struct {
	Name    string              `json:"name"`
	Options []InteractionOption `json:"options,omitempty"`
}

// InteractionOption is one provided argument. The bot only declares string
// options, so the value decodes as a string.
type InteractionOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OptionMap indexes options by name.
func (d *InteractionData) OptionMap() map[string]string {
	opts := make(map[string]string, len(d.Options))
	for _, o := range d.Options {
		opts[o.Name] = o.Value
	}
	return opts
}

// InteractionResponse answers an interaction.
type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionCallbackData `json:"data,omitempty"`
}

// InteractionCallbackData is the response message body.
type InteractionCallbackData struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
	Flags   int     `json:"flags,omitempty"`
}

// ReactionEvent is the MESSAGE_REACTION_ADD / MESSAGE_REACTION_REMOVE
// dispatch payload.
type ReactionEvent struct {
	UserID    Snowflake `json:"user_id"`
	ChannelID Snowflake `json:"channel_id"`
	MessageID Snowflake `json:"message_id"`
	GuildID   Snowflake `json:"guild_id"`
	Emoji     Emoji     `json:"emoji"`
}

// Ready is the READY dispatch payload.
type Ready struct {
	User             User   `json:"user"`
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
	Application      struct {
		ID Snowflake `json:"id"`
	} `json:"application"`
}
