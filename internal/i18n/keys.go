package i18n

// Key names one UI string. Only the constants below are valid keys.
type Key string

const (
	NavHome     Key = "nav.home"
	NavFeatures Key = "nav.features"
	NavPricing  Key = "nav.pricing"
	NavWhy      Key = "nav.why"
	NavPrograms Key = "nav.programs"
	NavSignIn   Key = "nav.signIn"
	NavSignOut  Key = "nav.signOut"
	CTAStart    Key = "cta.getStarted"

	HeroTitle    Key = "hero.title"
	HeroSubtitle Key = "hero.subtitle"

	ProgramsTitle       Key = "programs.title"
	ProgramsSearch      Key = "programs.search"
	ProgramsFilterAll   Key = "programs.filter.all"
	ProgramsFilterMine  Key = "programs.filter.myCards"
	ProgramsEmpty       Key = "programs.empty"
	ProgramsError       Key = "programs.error"
	ProgramsNoCards     Key = "programs.noCards.title"
	ProgramsNoCardsBody Key = "programs.noCards.body"
	ProgramsBrowseAll   Key = "programs.browseAll"

	CardReward            Key = "card.reward"
	CardRewardDefault     Key = "card.rewardText"
	CardRestaurantDefault Key = "card.restaurant"
	CardGetThisCard       Key = "card.getThisCard"
	CardRewardEarned      Key = "card.rewardEarned"
	CardShowQRCode        Key = "card.showQRCode"
	CardStamps            Key = "card.stamps"
	CardYourCard          Key = "card.yourCard"
	CardStampsToReward    Key = "card.stampsToReward"

	CodeScanCard     Key = "code.scanCard"
	CodeInstructions Key = "code.instructions"
	CodeCardNumber   Key = "code.cardNumber"
	CodeManualEntry  Key = "code.manualEntry"

	AuthSignInTitle    Key = "auth.signInTitle"
	AuthSignUpTitle    Key = "auth.signUpTitle"
	AuthSuccessTitle   Key = "auth.successTitle"
	AuthAccountCreated Key = "auth.accountCreated"
	AuthFillAllFields  Key = "auth.fillAllFields"
	AuthSignInError    Key = "auth.signInError"
	AuthSignUpError    Key = "auth.signUpError"
	AuthEmail          Key = "auth.email"
	AuthPassword       Key = "auth.password"
	AuthName           Key = "auth.name"

	EnrollAlready Key = "enroll.already"
	EnrollError   Key = "enroll.error"
	EnrollSuccess Key = "enroll.success"
	EnrollViewMy  Key = "enroll.viewMyCards"

	OverlayClose Key = "overlay.close"

	AppCTATitle   Key = "appCta.title"
	AppCTADismiss Key = "appCta.dismiss"
)

// AllKeys lists every Key; the default table must translate all of them.
var AllKeys = []Key{
	NavHome, NavFeatures, NavPricing, NavWhy, NavPrograms, NavSignIn, NavSignOut, CTAStart,
	HeroTitle, HeroSubtitle,
	ProgramsTitle, ProgramsSearch, ProgramsFilterAll, ProgramsFilterMine, ProgramsEmpty,
	ProgramsError, ProgramsNoCards, ProgramsNoCardsBody, ProgramsBrowseAll,
	CardReward, CardRewardDefault, CardRestaurantDefault, CardGetThisCard, CardRewardEarned,
	CardShowQRCode, CardStamps, CardYourCard, CardStampsToReward,
	CodeScanCard, CodeInstructions, CodeCardNumber, CodeManualEntry,
	AuthSignInTitle, AuthSignUpTitle, AuthSuccessTitle, AuthAccountCreated, AuthFillAllFields,
	AuthSignInError, AuthSignUpError, AuthEmail, AuthPassword, AuthName,
	EnrollAlready, EnrollError, EnrollSuccess, EnrollViewMy,
	OverlayClose,
	AppCTATitle, AppCTADismiss,
}
