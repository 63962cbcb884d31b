package messages

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/onboarding"
	"strings"
)

// Key names one localized text.
type Key string

const (
	KeyWelcome             Key = "welcome"
	KeyNoUsername          Key = "no_username"
	KeyUsernameGuide       Key = "username_guide"
	KeyAgreementText       Key = "agreement_text"
	KeyAgreementRequired   Key = "agreement_required"
	KeyChooseOption        Key = "choose_option"
	KeyEnterAddress        Key = "enter_address"
	KeyInvalidAddress      Key = "invalid_address"
	KeyAddressExplanation  Key = "address_explanation"
	KeyChecking            Key = "checking"
	KeyNoTrustline         Key = "no_trustline"
	KeyTrustlineHelp       Key = "trustline_help"
	KeyOpenTrustline       Key = "open_trustline"
	KeyNoRecommendation    Key = "no_recommendation"
	KeyUnverifiedRecommend Key = "recommendation_unverified"
	KeyRecommendationHelp  Key = "recommendation_help"
	KeyAllChecksPassed     Key = "all_checks_passed"
	KeyFeedbackInstruction Key = "feedback_instruction"
	KeyFeedbackText        Key = "feedback_text"
	KeyApplicationText     Key = "application_text"
	KeyLanguageChanged     Key = "language_changed"
	KeyChooseLanguage      Key = "choose_language"
	KeyAlreadyMember       Key = "already_member"
	KeyMemberBalance       Key = "member_balance"
	KeyTryDifferent        Key = "try_different_address"
	KeyNotStarted          Key = "not_started"
	KeyTryLater            Key = "try_later"

	// Button labels
	KeyBtnUsernameInstalled Key = "btn_username_installed"
	KeyBtnAgree             Key = "btn_agree"
	KeyBtnDisagree          Key = "btn_disagree"
	KeyBtnRepeatCheck       Key = "btn_repeat_check"
	KeyBtnRestart           Key = "btn_restart"
	KeyBtnAddressHelp       Key = "btn_address_help"
)

var catalog = map[domain.Locale]map[Key]string{
	domain.LocaleEN: {
		KeyWelcome:             "This bot helps you apply for membership in the Montelibero Association (@MTL_Association). It takes a few steps and a few checks.",
		KeyNoUsername:          "Your account has no username. The Association rules allow accounts without one, but we have no way to work with members who lack it.",
		KeyUsernameGuide:       "How to set a username:",
		KeyAgreementText:       "Joining the Montelibero Association requires agreeing to the current text of the Agreement.\n\nPlease read it:",
		KeyAgreementRequired:   "You cannot join the Association without agreeing to the Agreement.",
		KeyChooseOption:        "Please pick one of the offered options.",
		KeyEnterAddress:        "Send your Stellar address:",
		KeyInvalidAddress:      "That is not a valid Stellar address.",
		KeyAddressExplanation:  "A Stellar address identifies you on the Stellar network, much like an account number at a bank.\n\nThe article \"Easy entry into tokenomics\" walks you through getting one and ends with an airdrop:",
		KeyChecking:            "👀 Let me take a look...",
		KeyNoTrustline:         "Your address has no trustline to the MTLAP token. MTLAP is the membership token and it cannot be sent to you without that permission.",
		KeyTrustlineHelp:       "Questions are welcome in the Square chat.",
		KeyOpenTrustline:       "Open the trustline:",
		KeyNoRecommendation:    "Joining requires a recommendation from a verified member (one holding at least 2 MTLAP).",
		KeyUnverifiedRecommend: "Your recommendation comes from someone who is not a verified member (one holding at least 2 MTLAP).",
		KeyRecommendationHelp:  "Ask verified members you know, or ask in the Square chat:",
		KeyAllChecksPassed:     "✅ Great! Every check passed.",
		KeyFeedbackInstruction: "Now send your application to the feedback bot:",
		KeyFeedbackText:        "Text ready to copy:",
		KeyApplicationText:     "I want to join the Montelibero Association.\nI have read the Agreement and fully agree with it.\nMy address: %s",
		KeyLanguageChanged:     "Language changed to English.",
		KeyChooseLanguage:      "Choose your language:",
		KeyAlreadyMember:       "This address already belongs to a member of the Association!",
		KeyMemberBalance:       "Balance: %s MTLAP",
		KeyTryDifferent:        "Please send a different address.",
		KeyNotStarted:          "Send /start to begin.",
		KeyTryLater:            "Something went wrong on our side. Please try again later.",

		KeyBtnUsernameInstalled: "✅ I have set a username",
		KeyBtnAgree:             "✅ Agree",
		KeyBtnDisagree:          "❌ Disagree",
		KeyBtnRepeatCheck:       "🔄 Check again",
		KeyBtnRestart:           "Back to start",
		KeyBtnAddressHelp:       "What is a Stellar address?",
	},
	domain.LocaleRU: {
		KeyWelcome:             "Этот бот поможет подать заявку на вступление в Ассоциацию Монтелиберо (@MTL_Association). Всего несколько шагов и несколько проверок!",
		KeyNoUsername:          "У вас не задан юзернейм.\n\nПравила Ассоциации не запрещают аккаунты без юзернейма, но работать с такими участниками мы не умеем.",
		KeyUsernameGuide:       "Как установить юзернейм:",
		KeyAgreementText:       "Для вступления в Ассоциацию Монтелиберо нужно согласиться с действующим текстом Соглашения.\n\nОзнакомьтесь с ним:",
		KeyAgreementRequired:   "Без согласия с Соглашением вступить в Ассоциацию нельзя.",
		KeyChooseOption:        "Пожалуйста, выберите один из предложенных вариантов.",
		KeyEnterAddress:        "Пришлите ваш Stellar-адрес:",
		KeyInvalidAddress:      "Это не похоже на Stellar-адрес.",
		KeyAddressExplanation:  "Stellar-адрес это ваш идентификатор в сети Stellar, что-то вроде номера банковского счёта.\n\nПро то, как его получить, рассказывает статья «Лёгкий вход в токеномику», а в конце вас ждёт аирдроп:",
		KeyChecking:            "👀 Так, сейчас посмотрим...",
		KeyNoTrustline:         "У адреса нет линии доверия к токену MTLAP. Это токен участия, и без вашего разрешения его нельзя прислать.",
		KeyTrustlineHelp:       "С вопросами приходите в чат Площади.",
		KeyOpenTrustline:       "Открыть линию доверия:",
		KeyNoRecommendation:    "Для вступления нужна рекомендация верифицированного участника (у него должно быть не меньше 2 MTLAP).",
		KeyUnverifiedRecommend: "Рекомендация у вас есть, но не от верифицированного участника (у него должно быть не меньше 2 MTLAP).",
		KeyRecommendationHelp:  "Попросите знакомых верифицированных участников или спросите в чате Площади:",
		KeyAllChecksPassed:     "✅ Отлично! Все проверки пройдены.",
		KeyFeedbackInstruction: "Теперь отправьте заявку боту обратной связи:",
		KeyFeedbackText:        "Готовый текст для копирования:",
		KeyApplicationText:     "Хочу вступить в Ассоциацию Монтелиберо.\nС Соглашением ознакомился и полностью с ним согласен.\nМой адрес: %s",
		KeyLanguageChanged:     "Язык изменён на русский.",
		KeyChooseLanguage:      "Выберите язык:",
		KeyAlreadyMember:       "Этот адрес уже принадлежит участнику Ассоциации!",
		KeyMemberBalance:       "На счету: %s MTLAP",
		KeyTryDifferent:        "Попробуйте прислать другой адрес.",
		KeyNotStarted:          "Отправьте /start, чтобы начать.",
		KeyTryLater:            "У нас что-то сломалось. Попробуйте позже.",

		KeyBtnUsernameInstalled: "✅ Я установил юзернейм",
		KeyBtnAgree:             "✅ Согласен",
		KeyBtnDisagree:          "❌ Не согласен",
		KeyBtnRepeatCheck:       "🔄 Повторить проверку",
		KeyBtnRestart:           "Вернуться к началу",
		KeyBtnAddressHelp:       "Что за стеллар адрес?",
	},
}

// Text returns the text for key in locale, falling back to English and
// then to the key itself.
func Text(locale domain.Locale, key Key) string {
	if texts, ok := catalog[locale]; ok {
		if s, ok := texts[key]; ok {
			return s
		}
	}
	if s, ok := catalog[domain.DefaultLocale][key]; ok {
		return s
	}
	return string(key)
}

// replyButtons maps reply keyboard labels to the button the applicant meant.
var replyButtons = map[Key]onboarding.ButtonTag{
	KeyBtnAgree:       onboarding.ButtonAgree,
	KeyBtnDisagree:    onboarding.ButtonDisagree,
	KeyBtnRepeatCheck: onboarding.ButtonRepeatCheck,
	KeyBtnRestart:     onboarding.ButtonRestart,
	KeyBtnAddressHelp: onboarding.ButtonAddressHelp,
}

// MatchButton recognizes a reply keyboard label in any supported locale.
// The applicant may have switched language while an old keyboard was
// still on screen.
func MatchButton(text string) (onboarding.ButtonTag, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, texts := range catalog {
		for key, tag := range replyButtons {
			if texts[key] == text {
				return tag, true
			}
		}
	}
	return "", false
}
