package auth

import (
	"fmt"
	"strings"
)

// ShowCredentialGuide displays step-by-step instructions for obtaining
// both credential halves: the backend API token and the session cookies
func ShowCredentialGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 CREDENTIAL SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("igcollect can authenticate two ways. You only need the one that matches")
	fmt.Println("the commands you plan to run:")
	fmt.Println()
	fmt.Println("   • API token      → followers / posts / comments / enrich (batch backend)")
	fmt.Println("   • Session cookies → followers --direct / enrich --direct (web API)")
	fmt.Println()

	fmt.Println("🔑 PART 1: Backend API token")
	fmt.Println("   1. Sign in to your actor service console")
	fmt.Println("   2. Go to Settings → Integrations → API tokens")
	fmt.Println("   3. Copy the token (starts with 'apify_api_')")
	fmt.Println("   4. Pass it to 'igcollect auth login' or export APIFY_TOKEN")
	fmt.Println()

	fmt.Println("🍪 PART 2: Session cookies")
	fmt.Println("   1. Open https://www.instagram.com and log in")
	fmt.Println("   2. Open Developer Tools (F12, or Cmd+Option+I on Mac)")
	fmt.Println("   3. Go to the Application tab (Chrome) or Storage tab (Firefox)")
	fmt.Println("   4. Expand 'Cookies' and click 'https://www.instagram.com'")
	fmt.Println("   5. Copy these three values:")
	fmt.Println()
	fmt.Println("      ┌─────────────┬──────────────────────────────────────────┐")
	fmt.Println("      │ Cookie      │ What it looks like                       │")
	fmt.Println("      ├─────────────┼──────────────────────────────────────────┤")
	fmt.Println("      │ sessionid   │ Long string with %3A and %2C             │")
	fmt.Println("      │ csrftoken   │ 32-character string                      │")
	fmt.Println("      │ ds_user_id  │ Your numeric account id                  │")
	fmt.Println("      └─────────────┴──────────────────────────────────────────┘")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Copy the ENTIRE value (everything after the = sign)")
	fmt.Println("   • Cookies expire; when a run fails with an auth error, refresh them")
	fmt.Println("   • Use a secondary account for collection runs")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These values give FULL access to your accounts")
	fmt.Println("   • NEVER share them; this tool stores them encrypted")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickGuide shows a condensed version for experienced users
func ShowQuickGuide() {
	fmt.Println("\n🔑 Token: console → Settings → API tokens, or export APIFY_TOKEN")
	fmt.Println("🍪 Cookies: F12 → Application → Cookies → instagram.com → sessionid, csrftoken, ds_user_id")
	fmt.Println("   Type 'help' for detailed instructions")
}
