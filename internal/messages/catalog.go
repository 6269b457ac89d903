package messages

// DefaultCatalog is the production copy. Pool sizes are part of the cycling
// behavior: a user sees every message in a pool before any repeat.
func DefaultCatalog() Catalog {
	return Catalog{
		Conversion:         conversionPool,
		ActiveEngagement:   activeEngagementPool,
		InactiveEngagement: inactiveEngagementPool,
		NewUserEngagement:  newUserEngagementPool,
	}
}

var conversionPool = Pool{
	{ID: "conv_01", Title: "Unlock your full stage history", Body: "Pro keeps every show, venue and payout in one place. Try it free.", Link: "/upgrade"},
	{ID: "conv_02", Title: "Your gigs deserve better books", Body: "Track expenses per show and see what you actually earned with Pro.", Link: "/upgrade"},
	{ID: "conv_03", Title: "Never lose a setlist again", Body: "Pro backs up every show detail the moment you log it.", Link: "/upgrade"},
	{ID: "conv_04", Title: "See your year on stage", Body: "Pro's yearly recap shows miles, shows and earnings at a glance.", Link: "/upgrade"},
	{ID: "conv_05", Title: "Split payouts without spreadsheets", Body: "Pro splits show income across your whole band automatically.", Link: "/upgrade"},
	{ID: "conv_06", Title: "Tax season, already sorted", Body: "Export every gig expense as a clean report with Pro.", Link: "/upgrade"},
	{ID: "conv_07", Title: "Which venue pays you best?", Body: "Pro ranks your venues by payout so you book smarter.", Link: "/upgrade"},
	{ID: "conv_08", Title: "Your band, one calendar", Body: "Pro shares every booked date with all your members instantly.", Link: "/upgrade"},
	{ID: "conv_09", Title: "Stop guessing your mileage", Body: "Pro tracks travel per show for painless reimbursements.", Link: "/upgrade"},
	{ID: "conv_10", Title: "A merch table that adds up", Body: "Log merch sales per show and watch trends with Pro.", Link: "/upgrade"},
	{ID: "conv_11", Title: "Double-booked again?", Body: "Pro flags date conflicts before you confirm a show.", Link: "/upgrade"},
	{ID: "conv_12", Title: "The gig diary that pays rent", Body: "Musicians on Pro report recovering hundreds in forgotten expenses.", Link: "/upgrade"},
	{ID: "conv_13", Title: "Every contact, every venue", Body: "Keep promoter and sound-tech contacts attached to each venue with Pro.", Link: "/upgrade"},
	{ID: "conv_14", Title: "One tap from stage to books", Body: "Log a show in under a minute. Pro fills in the venue details.", Link: "/upgrade"},
	{ID: "conv_15", Title: "Your fee history, remembered", Body: "Pro recalls what a venue paid you last time before you quote.", Link: "/upgrade"},
	{ID: "conv_16", Title: "Know your busiest months", Body: "Pro charts your gig density so you can plan touring and rest.", Link: "/upgrade"},
	{ID: "conv_17", Title: "Receipts in your pocket", Body: "Snap a receipt at load-in; Pro files it under tonight's show.", Link: "/upgrade"},
	{ID: "conv_18", Title: "Get paid what you're owed", Body: "Pro tracks unpaid shows so nothing slips through.", Link: "/upgrade"},
	{ID: "conv_19", Title: "Band finances, minus the fights", Body: "Transparent per-member splits keep everyone on the same page.", Link: "/upgrade"},
	{ID: "conv_20", Title: "Try Pro free for 14 days", Body: "All features, no card required. Cancel anytime.", Link: "/upgrade"},
	{ID: "conv_21", Title: "Your first 10 shows are telling", Body: "Upgrade to see earnings trends across everything you've logged.", Link: "/upgrade"},
	{ID: "conv_22", Title: "Venues love organized bands", Body: "Show up with history and numbers. Pro keeps both ready.", Link: "/upgrade"},
	{ID: "conv_23", Title: "Stop losing gig money", Body: "Strings, gas, parking: Pro finds where the fee goes.", Link: "/upgrade"},
	{ID: "conv_24", Title: "A manager in your pocket", Body: "Reminders, payouts, contacts. Pro handles the boring parts.", Link: "/upgrade"},
	{ID: "conv_25", Title: "What did last summer earn?", Body: "Pro answers in one tap with date-range earnings reports.", Link: "/upgrade"},
	{ID: "conv_26", Title: "Keep your side hustle honest", Body: "Separate music income cleanly from day-job money with Pro.", Link: "/upgrade"},
	{ID: "conv_27", Title: "Setlists tied to shows", Body: "Attach the setlist to the gig and find it years later.", Link: "/upgrade"},
	{ID: "conv_28", Title: "Rehearsals count too", Body: "Pro logs rehearsal spaces and costs next to your shows.", Link: "/upgrade"},
	{ID: "conv_29", Title: "Your touring map", Body: "Pro pins every venue you've played on one map.", Link: "/upgrade"},
	{ID: "conv_30", Title: "Quote with confidence", Body: "Back your fee with real numbers from past bookings.", Link: "/upgrade"},
	{ID: "conv_31", Title: "The whole band sees the books", Body: "Shared earnings views end the 'where did the money go' talk.", Link: "/upgrade"},
	{ID: "conv_32", Title: "Don't rebuild your history", Body: "Start tracking now; future-you will thank present-you.", Link: "/upgrade"},
	{ID: "conv_33", Title: "Pro pays for itself", Body: "One recovered expense report usually covers the year.", Link: "/upgrade"},
	{ID: "conv_34", Title: "From open mic to headline", Body: "Watch your average fee climb as you log more shows.", Link: "/upgrade"},
	{ID: "conv_35", Title: "Deposit tracking built in", Body: "Pro remembers who paid a deposit and who still owes.", Link: "/upgrade"},
	{ID: "conv_36", Title: "Less admin, more music", Body: "Pro automates the paperwork between you and the stage.", Link: "/upgrade"},
	{ID: "conv_37", Title: "Your duo, trio or big band", Body: "Pro handles lineups of any size, per show.", Link: "/upgrade"},
	{ID: "conv_38", Title: "Weekend warrior or full-timer", Body: "Either way, Pro shows whether the gigs add up.", Link: "/upgrade"},
	{ID: "conv_39", Title: "Archive tonight forever", Body: "Photos, notes and numbers from every show, kept safe.", Link: "/upgrade"},
	{ID: "conv_40", Title: "Compare this year to last", Body: "Year-over-year gig stats are one upgrade away.", Link: "/upgrade"},
	{ID: "conv_41", Title: "The encore is Pro", Body: "You've seen the basics. The good stuff is behind the curtain.", Link: "/upgrade"},
	{ID: "conv_42", Title: "Lock in your rate today", Body: "Upgrade now and keep this price as long as you subscribe.", Link: "/upgrade"},
}

var activeEngagementPool = Pool{
	{ID: "eng_01", Title: "Log tonight while it's fresh", Body: "Fees and expenses fade fast. Two minutes now saves an hour later.", Link: "/shows/new"},
	{ID: "eng_02", Title: "Any unpaid shows?", Body: "Check your outstanding payouts and send a friendly nudge.", Link: "/payouts"},
	{ID: "eng_03", Title: "Your month in shows", Body: "Open your dashboard for this month's earnings so far.", Link: "/dashboard"},
	{ID: "eng_04", Title: "Tip: photograph receipts", Body: "Attach receipts at load-in and expense night is painless.", Link: "/expenses"},
	{ID: "eng_05", Title: "Rate last night's venue", Body: "A quick note on sound and payout helps your future bookings.", Link: "/venues"},
	{ID: "eng_06", Title: "Tip: set your default fee", Body: "New shows pre-fill your usual rate. Change it in settings.", Link: "/settings"},
	{ID: "eng_07", Title: "Mileage adds up", Body: "Log travel for last weekend's run before the odometer forgets.", Link: "/expenses"},
	{ID: "eng_08", Title: "Who's in the lineup?", Body: "Tag your members on upcoming shows so splits compute themselves.", Link: "/shows"},
	{ID: "eng_09", Title: "Tip: duplicate a show", Body: "Recurring gig? Duplicate last week's entry and just change the date.", Link: "/shows"},
	{ID: "eng_10", Title: "Quarterly check-in", Body: "Your earnings report for the quarter is ready to view.", Link: "/reports"},
	{ID: "eng_11", Title: "Venue notes pay off", Body: "Load-in doors, parking, the sound guy's name: write it once.", Link: "/venues"},
	{ID: "eng_12", Title: "Tip: export before tax time", Body: "Monthly exports beat a year-end scramble. Takes one tap.", Link: "/reports"},
	{ID: "eng_13", Title: "Upcoming show this week", Body: "Check the details and make sure the fee is confirmed.", Link: "/shows"},
	{ID: "eng_14", Title: "Your top venue this year", Body: "See which room has paid you the most so far.", Link: "/dashboard"},
	{ID: "eng_15", Title: "Tip: track merch per show", Body: "Merch numbers per room tell you where to restock.", Link: "/shows"},
	{ID: "eng_16", Title: "Close out last weekend", Body: "Two shows still have no expenses logged. Finish the books.", Link: "/expenses"},
	{ID: "eng_17", Title: "Tip: deposits first", Body: "Log the deposit when it lands, the balance at the gig.", Link: "/payouts"},
	{ID: "eng_18", Title: "A year ago on stage", Body: "Look back at what you played this week last year.", Link: "/shows"},
	{ID: "eng_19", Title: "Keep your streak going", Body: "You've logged every show this month. Don't break the chain.", Link: "/shows/new"},
	{ID: "eng_20", Title: "Tip: per-member splits", Body: "Set a member's cut once; every show after splits itself.", Link: "/settings"},
	{ID: "eng_21", Title: "Slow month? Book it", Body: "Your calendar has open weekends. Browse your best-paying venues.", Link: "/venues"},
	{ID: "eng_22", Title: "Tip: attach the setlist", Body: "Future-you will want to know what worked in that room.", Link: "/shows"},
	{ID: "eng_23", Title: "Expense categories matter", Body: "Strings vs. fuel vs. food: clean categories make clean reports.", Link: "/expenses"},
	{ID: "eng_24", Title: "Your average fee moved", Body: "Check the trend line on your dashboard.", Link: "/dashboard"},
	{ID: "eng_25", Title: "Tip: share the calendar", Body: "Members who see the calendar miss fewer soundchecks.", Link: "/settings"},
	{ID: "eng_26", Title: "Archive old contacts?", Body: "Tidy your venue list: archive rooms you no longer play.", Link: "/venues"},
	{ID: "eng_27", Title: "Halfway through the year", Body: "Your six-month earnings summary is ready.", Link: "/reports"},
	{ID: "eng_28", Title: "Tip: log cancellations too", Body: "Cancelled shows with kill fees belong in the books.", Link: "/shows"},
	{ID: "eng_29", Title: "New report: by weekday", Body: "See which nights of the week actually pay.", Link: "/reports"},
	{ID: "eng_30", Title: "Tip: note the backline", Body: "Knowing what gear the room has saves you a van load.", Link: "/venues"},
	{ID: "eng_31", Title: "Month-end is near", Body: "Close out this month's shows before the new one starts.", Link: "/shows"},
	{ID: "eng_32", Title: "Your data, your story", Body: "Browse your all-time stats: shows, rooms, miles, money.", Link: "/dashboard"},
	{ID: "eng_33", Title: "Tip: quote from history", Body: "Before quoting a venue, check what they paid you last time.", Link: "/venues"},
}

var inactiveEngagementPool = Pool{
	{ID: "inact_01", Title: "The stage misses you", Body: "It's been a quiet week. Log your latest show or plan the next one.", Link: "/shows/new"},
	{ID: "inact_02", Title: "Your books are waiting", Body: "A few minutes of catch-up keeps your gig history complete.", Link: "/shows"},
	{ID: "inact_03", Title: "Played anything lately?", Body: "Backfill recent shows now while the details are still fresh.", Link: "/shows/new"},
	{ID: "inact_04", Title: "Don't lose the thread", Body: "Your earnings trend works best with every show logged.", Link: "/dashboard"},
	{ID: "inact_05", Title: "Quick catch-up?", Body: "Add last month's gigs in one sitting. Duplicate makes it fast.", Link: "/shows"},
	{ID: "inact_06", Title: "Still on a break?", Body: "Even off-season expenses (gear, rehearsal space) are worth logging.", Link: "/expenses"},
}

var newUserEngagementPool = Pool{
	{ID: "new_01", Title: "Log your first show", Body: "Start your gig history: date, venue, fee. Two minutes, tops.", Link: "/shows/new"},
	{ID: "new_02", Title: "Add your home venue", Body: "Save the room you play most; every show after fills itself in.", Link: "/venues/new"},
	{ID: "new_03", Title: "Invite your bandmates", Body: "Shared calendars and splits work better with the whole lineup in.", Link: "/settings"},
	{ID: "new_04", Title: "Set your usual fee", Body: "New shows will pre-fill it so logging gets even faster.", Link: "/settings"},
	{ID: "new_05", Title: "Your dashboard awaits", Body: "It fills up with every show you log. Start the trend line.", Link: "/dashboard"},
	{ID: "new_06", Title: "Got a gig this month?", Body: "Put it in the calendar and we'll remind you before doors.", Link: "/shows/new"},
	{ID: "new_07", Title: "Track one expense", Body: "Try it with tonight's parking. Reports come free after that.", Link: "/expenses"},
	{ID: "new_08", Title: "Backfill a classic", Body: "Add a memorable past show; your history doesn't have to start today.", Link: "/shows/new"},
	{ID: "new_09", Title: "Tour the reports tab", Body: "See what your numbers will look like once shows roll in.", Link: "/reports"},
	{ID: "new_10", Title: "Timezone check", Body: "Make sure your profile timezone is right so reminders land well.", Link: "/settings"},
	{ID: "new_11", Title: "One show, full picture", Body: "Fee, expenses, lineup, notes: log one gig end to end.", Link: "/shows/new"},
}
