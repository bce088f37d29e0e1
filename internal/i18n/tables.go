package i18n

// Table maps keys to text for one language.
type Table map[Key]string

var italian = Table{
	NavHome:     "Home",
	NavFeatures: "Funzionalità",
	NavPricing:  "Prezzi",
	NavWhy:      "Perché Carte Fedeltà",
	NavPrograms: "Programmi",
	NavSignIn:   "Accedi",
	NavSignOut:  "Esci",
	CTAStart:    "Inizia Ora",

	HeroTitle:    "Carte Fedeltà Digitali per Ristoranti Moderni",
	HeroSubtitle: "Sostituisci le tessere cartacee con un'esperienza digitale fluida. Aumenta la fidelizzazione dei clienti senza sforzo.",

	ProgramsTitle:       "Programmi Fedeltà",
	ProgramsSearch:      "Cerca ristoranti o località",
	ProgramsFilterAll:   "Tutti",
	ProgramsFilterMine:  "Le Mie Carte",
	ProgramsEmpty:       "Nessun programma fedeltà attivo disponibile.",
	ProgramsError:       "Errore nel caricamento dei programmi",
	ProgramsNoCards:     "Ancora nessuna carta",
	ProgramsNoCardsBody: "Inizia a collezionare carte fedeltà per ottenere premi",
	ProgramsBrowseAll:   "Sfoglia Tutti i Programmi",

	CardReward:            "Premio:",
	CardRewardDefault:     "Articolo Gratuito",
	CardRestaurantDefault: "Ristorante",
	CardGetThisCard:       "Ottieni Questa Carta",
	CardRewardEarned:      "🎉 Premio Ottenuto!",
	CardShowQRCode:        "Mostra Codice QR",
	CardStamps:            "Timbri",
	CardYourCard:          "✓ La Tua Carta",
	CardStampsToReward:    "Timbri per il Premio",

	CodeScanCard:     "Scansiona Carta",
	CodeInstructions: "Mostra questo codice allo staff per raccogliere timbri",
	CodeCardNumber:   "Numero Carta",
	CodeManualEntry:  "Per l'inserimento manuale da parte dello staff",

	AuthSignInTitle:    "Accedi per Ottenere la Carta",
	AuthSignUpTitle:    "Registrati per Ottenere la Carta",
	AuthSuccessTitle:   "Fatto!",
	AuthAccountCreated: "Account creato! Stiamo aggiungendo la tua carta...",
	AuthFillAllFields:  "Compila tutti i campi",
	AuthSignInError:    "Errore durante l'accesso",
	AuthSignUpError:    "Errore durante la registrazione",
	AuthEmail:          "Email",
	AuthPassword:       "Password",
	AuthName:           "Nome",

	EnrollAlready: "Hai già questa carta!",
	EnrollError:   "Errore nell'aggiunta della carta. Riprova.",
	EnrollSuccess: "Carta aggiunta!",
	EnrollViewMy:  "Vedi Le Mie Carte",

	OverlayClose: "Chiudi",

	AppCTATitle:   "Scarica l'app per tenere le tue carte sempre con te",
	AppCTADismiss: "Non ora",
}

var english = Table{
	NavHome:     "Home",
	NavFeatures: "Features",
	NavPricing:  "Pricing",
	NavWhy:      "Why Loyalty Cards",
	NavPrograms: "Programs",
	NavSignIn:   "Sign In",
	NavSignOut:  "Sign Out",
	CTAStart:    "Get Started",

	HeroTitle:    "Digital Loyalty Cards for Modern Restaurants",
	HeroSubtitle: "Replace paper stamp cards with a seamless digital experience. Boost customer retention with zero friction.",

	ProgramsTitle:       "Loyalty Programs",
	ProgramsSearch:      "Search restaurants or locations",
	ProgramsFilterAll:   "All",
	ProgramsFilterMine:  "My Cards",
	ProgramsEmpty:       "No active loyalty programs available.",
	ProgramsError:       "Error loading programs",
	ProgramsNoCards:     "No cards yet",
	ProgramsNoCardsBody: "Start collecting loyalty cards to earn rewards",
	ProgramsBrowseAll:   "Browse All Programs",

	CardReward:            "Reward:",
	CardRewardDefault:     "Free Item",
	CardRestaurantDefault: "Restaurant",
	CardGetThisCard:       "Get This Card",
	CardRewardEarned:      "🎉 Reward Earned!",
	CardShowQRCode:        "Show QR Code",
	CardStamps:            "Stamps",
	CardYourCard:          "✓ Your Card",
	CardStampsToReward:    "Stamps to Reward",

	CodeScanCard:     "Scan Card",
	CodeInstructions: "Show this code to staff to collect stamps",
	CodeCardNumber:   "Card Number",
	CodeManualEntry:  "For manual entry by staff",

	AuthSignInTitle:    "Sign In to Get Card",
	AuthSignUpTitle:    "Sign Up to Get Card",
	AuthSuccessTitle:   "Success!",
	AuthAccountCreated: "Account created! Adding your card...",
	AuthFillAllFields:  "Please fill in all fields",
	AuthSignInError:    "Error signing in",
	AuthSignUpError:    "Error signing up",
	AuthEmail:          "Email",
	AuthPassword:       "Password",
	AuthName:           "Name",

	EnrollAlready: "You already have this card!",
	EnrollError:   "Error adding card. Please try again.",
	EnrollSuccess: "Card added!",
	EnrollViewMy:  "View My Cards",

	OverlayClose: "Close",

	AppCTATitle:   "Get the app to keep your cards with you",
	AppCTADismiss: "Not now",
}
