package i18n

// templates maps a template id to its per-language format string.
// Formats use fmt verbs and Telegram HTML markup.
var templates = map[string]map[string]string{
	// General.
	"GENERAL_WelcomeString": {
		"it": "Ciao, sono TasteIT, ti aiuterò nella ricerca del locale perfetto in cui mangiare.\n\nDigita il comando /help per avere una completa panoramica delle funzionalità offerte.",
		"en": "Hi, I am TasteIT, and I will help you to search for the perfect restaurant to have a meal.\n\nTry the /help command for having a complete overview of my functionalities.",
	},
	"GENERAL_Help": {
		"it": "<b>Comandi disponibili</b>\n/cerca - cerca un ristorante\n/preferiti - consulta le tue liste di preferiti\n/settings - modifica le distanze di ricerca\n/lang - cambia lingua\n/annulla - interrompi l'operazione in corso",
		"en": "<b>Available commands</b>\n/search - look for a restaurant\n/favorites - browse your favorite lists\n/settings - change the search distances\n/lang - change language\n/cancel - stop the current operation",
	},
	"GENERAL_OperationCanceled": {
		"it": "Operazione annullata.",
		"en": "Operation canceled.",
	},
	"GENERAL_ConversationTimedOut": {
		"it": "Operazione annullata per inattività.",
		"en": "Operation canceled for inactivity.",
	},

	// Search.
	"GENERAL_SendRequiredPositionInfos": {
		"it": "Inviami la tua posizione oppure scrivi il nome del luogo da cui iniziare la ricerca.",
		"en": "Send me your position or type the name of the place to start the search from.",
	},
	"GENERAL_SearchRestaurantStartingLocation": {
		"it": "Cercherò a partire da <b>%s</b>.\n\nCosa ti va di mangiare?",
		"en": "I will search starting from <b>%s</b>.\n\nWhat would you like to eat?",
	},
	"GENERAL_SearchRestaurantCurrentPositionAccepted": {
		"it": "Posizione ricevuta.\n\nCosa ti va di mangiare?",
		"en": "Position received.\n\nWhat would you like to eat?",
	},
	"GENERAL_FoodPreferenceReset": {
		"it": "Cosa ti va di mangiare?",
		"en": "What would you like to eat?",
	},
	"GENERAL_SearchRestaurantInfoRecap": {
		"it": "<b>Riepilogo ricerca</b>\n🍝 Cibo: <b>%s</b>\n🕧 Aperto ora: %s\n💶 Prezzo massimo: %s\n🚶 Spostamento: %s (entro %d m)",
		"en": "<b>Search recap</b>\n🍝 Food: <b>%s</b>\n🕧 Open now: %s\n💶 Max price: %s\n🚶 Travel: %s (within %d m)",
	},
	"GENERAL_Walking": {
		"it": "a piedi",
		"en": "on foot",
	},
	"GENERAL_Driving": {
		"it": "in auto",
		"en": "by car",
	},
	"GENERAL_PickPrice": {
		"it": "Scegli il prezzo massimo.",
		"en": "Pick the maximum price.",
	},
	"GENERAL_RestaurantInfoDisplay": {
		"it": "<b>%s</b>\n%s <b><i>%s</i></b>/5 (<i>%s</i> recensioni)\n💶 %s\n📍 %s · ⏱ %s\n\n%d di %d",
		"en": "<b>%s</b>\n%s <b><i>%s</i></b>/5 (<i>%s</i> reviews)\n💶 %s\n📍 %s · ⏱ %s\n\n%d of %d",
	},
	"GENERAL_MoreInfos": {
		"it": "Più informazioni",
		"en": "More info",
	},
	"GENERAL_DetailedInfoOfRestaurant": {
		"it": "<b>%s</b>\n🏠 %s\n📞 %s\n💶 %s\n%s <b><i>%s</i></b>/5 (<i>%s</i> recensioni)\n\n<b>Orari</b>\n%s",
		"en": "<b>%s</b>\n🏠 %s\n📞 %s\n💶 %s\n%s <b><i>%s</i></b>/5 (<i>%s</i> reviews)\n\n<b>Opening hours</b>\n%s",
	},
	"GENERAL_ReviewContent": {
		"it": "<b>%s</b> · <i>%s</i>\n%s %d/5\n\n%s\n\n%d di %d",
		"en": "<b>%s</b> · <i>%s</i>\n%s %d/5\n\n%s\n\n%d of %d",
	},
	"GENERAL_PollQuestion": {
		"it": "Dove andiamo a mangiare?",
		"en": "Where shall we eat?",
	},
	"GENERAL_ChooseFavoriteList": {
		"it": "In quale lista vuoi salvare <b>%s</b>?",
		"en": "Which list do you want to save <b>%s</b> to?",
	},
	"GENERAL_NewList": {
		"it": "➕ Nuova lista",
		"en": "➕ New list",
	},
	"GENERAL_InsertListName": {
		"it": "Scrivi il nome della nuova lista.",
		"en": "Type the name of the new list.",
	},
	"GENERAL_ListCreated": {
		"it": "Lista <b>%s</b> creata.",
		"en": "List <b>%s</b> created.",
	},
	"GENERAL_RestaurantAddedToList": {
		"it": "<b>%s</b> aggiunto alla lista <b>%s</b>.",
		"en": "<b>%s</b> added to the <b>%s</b> list.",
	},

	// Favorites.
	"GENERAL_ShowCategories": {
		"it": "Ecco le tue liste di preferiti.",
		"en": "Here are your favorite lists.",
	},
	"GENERAL_RemoveRestaurantFromList": {
		"it": "Rimuovi dalla lista",
		"en": "Remove from list",
	},
	"GENERAL_DeleteList": {
		"it": "Elimina lista",
		"en": "Delete list",
	},
	"GENERAL_RestaurantRemoved": {
		"it": "<b>%s</b> rimosso dalla lista.",
		"en": "<b>%s</b> removed from the list.",
	},
	"GENERAL_ListDeleted": {
		"it": "Lista <b>%s</b> eliminata.",
		"en": "List <b>%s</b> deleted.",
	},

	// Settings.
	"GENERAL_SettingsRecap": {
		"it": "<b>Impostazioni</b>\n🚶 Distanza a piedi: %d m\n🚗 Distanza in auto: %d m\n\nScegli quale modificare.",
		"en": "<b>Settings</b>\n🚶 Walking distance: %d m\n🚗 Driving distance: %d m\n\nPick the one to change.",
	},
	"GENERAL_ChangeWalkDistance": {
		"it": "Scrivi la nuova distanza a piedi in metri (massimo 50000).",
		"en": "Type the new walking distance in meters (at most 50000).",
	},
	"GENERAL_ChangeDriveDistance": {
		"it": "Scrivi la nuova distanza in auto in metri (massimo 50000).",
		"en": "Type the new driving distance in meters (at most 50000).",
	},
	"GENERAL_ReachableOnFootSet": {
		"it": "Distanza a piedi impostata a %d m.",
		"en": "Walking distance set to %d m.",
	},
	"GENERAL_ReachableByCarSet": {
		"it": "Distanza in auto impostata a %d m.",
		"en": "Driving distance set to %d m.",
	},

	// Language.
	"GENERAL_ChooseLanguageString": {
		"it": "Scegli la lingua.",
		"en": "Choose the language.",
	},
	"GENERAL_LanguageUpdated": {
		"it": "Lingua aggiornata.",
		"en": "Language updated.",
	},

	// Errors.
	"ERROR_GoogleCriticalError": {
		"it": "Si è verificato un errore interno, riprova più tardi.",
		"en": "An internal error occurred, please try again later.",
	},
	"ERROR_InternalError": {
		"it": "Qualcosa è andato storto, l'operazione è stata interrotta.",
		"en": "Something went wrong, the operation has been stopped.",
	},
	"ERROR_NoPlacesFound": {
		"it": "Nessun luogo trovato con questo nome, riprova oppure inviami la tua posizione.",
		"en": "No place found with this name, try again or send me your position.",
	},
	"ERROR_InvalidPosition": {
		"it": "Posizione non valida, riprova.",
		"en": "Invalid position, try again.",
	},
	"ERROR_InvalidFood": {
		"it": "Usa solo lettere e spazi per descrivere il cibo.",
		"en": "Use letters and spaces only to describe the food.",
	},
	"ERROR_NoRestaurantsFound": {
		"it": "Nessun ristorante trovato. Ho rimosso il filtro sugli orari e ripristinato il prezzo massimo.",
		"en": "No restaurants found. I removed the opening hours filter and reset the max price.",
	},
	"ERROR_TimetableNotAvailable": {
		"it": "Orari non disponibili.",
		"en": "Opening hours not available.",
	},
	"ERROR_PhoneNumberNotAvailable": {
		"it": "Numero di telefono non disponibile.",
		"en": "Phone number not available.",
	},
	"ERROR_AddressNotAvailable": {
		"it": "Indirizzo non disponibile.",
		"en": "Address not available.",
	},
	"ERROR_NoReviewsAvailable": {
		"it": "Nessuna recensione disponibile.",
		"en": "No reviews available.",
	},
	"ERROR_InsufficientPollOptions": {
		"it": "Servono almeno due ristoranti per creare un sondaggio.",
		"en": "At least two restaurants are needed to start a poll.",
	},
	"ERROR_PollGroupOnly": {
		"it": "I sondaggi sono disponibili solo nei gruppi.",
		"en": "Polls are available in groups only.",
	},
	"ERROR_NoListsAvailable": {
		"it": "Non hai ancora nessuna lista di preferiti.",
		"en": "You have no favorite lists yet.",
	},
	"ERROR_EmptyList": {
		"it": "Questa lista è vuota.",
		"en": "This list is empty.",
	},
	"ERROR_ChoseAnAvailableOption": {
		"it": "Scegli una delle opzioni disponibili.",
		"en": "Choose one of the available options.",
	},
	"ERROR_FlowAlreadyActive": {
		"it": "Questa operazione è già in corso. Usa /annulla per interromperla.",
		"en": "This operation is already in progress. Use /cancel to stop it.",
	},
	"ERROR_InvalidListName": {
		"it": "Il nome della lista non può essere vuoto.",
		"en": "The list name cannot be empty.",
	},
	"ERROR_LoadListFailed": {
		"it": "Non è stato possibile aprire la lista.",
		"en": "Couldn't open the list.",
	},
	"ERROR_CreateListFailed": {
		"it": "Non è stato possibile creare la lista.",
		"en": "Couldn't create the list.",
	},
	"ERROR_AddToListFailed": {
		"it": "Non è stato possibile aggiungere il ristorante alla lista.",
		"en": "Couldn't add the restaurant to the list.",
	},
	"ERROR_RemoveFromListFailed": {
		"it": "Non è stato possibile rimuovere il ristorante.",
		"en": "Couldn't remove the restaurant.",
	},
	"ERROR_DeleteListFailed": {
		"it": "Non è stato possibile eliminare la lista.",
		"en": "Couldn't delete the list.",
	},
	"ERROR_InvalidDistance": {
		"it": "Inserisci un numero intero di metri tra 1 e 50000.",
		"en": "Type a whole number of meters between 1 and 50000.",
	},
	"ERROR_SaveSettingsFailed": {
		"it": "Non è stato possibile salvare l'impostazione.",
		"en": "Couldn't save the setting.",
	},
	"ERROR_SaveLanguageFailed": {
		"it": "Non è stato possibile salvare la lingua.",
		"en": "Couldn't save the language.",
	},
}
