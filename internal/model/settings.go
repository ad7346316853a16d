package model

// Setting keys recognized by the service. All values are stored as strings.
const (
	SettingDefaultInvitationQuota = "default_invitation_quota"
	SettingWelcomeBonusAmount     = "welcome_bonus_amount"
	SettingInviterBonusAmount     = "inviter_bonus_amount"
	SettingBotSystemEnabled       = "bot_system_enabled"
	SettingBotCheckInterval       = "bot_check_interval_seconds"
)

var DefaultSettings = map[string]string{
	SettingDefaultInvitationQuota: "3",
	SettingWelcomeBonusAmount:     "300",
	SettingInviterBonusAmount:     "200",
	SettingBotSystemEnabled:       "false",
	SettingBotCheckInterval:       "30",
}
