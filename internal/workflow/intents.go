// File: internal/workflow/intents.go
//
// The selector catalog. Each intent carries its ranked candidates:
// attribute-based locators first (most stable across target versions),
// role-based next, structural guesses last, with a visible-text anchor for
// the resolver's full-DOM fallback. The target's UI drifts between
// releases; this ordering is what keeps the engine working across drift.
package workflow

import "github.com/xkilldash9x/uiprov/internal/resolver"

func emailFieldIntent() resolver.Intent {
	return resolver.Intent{
		Name: "email field",
		Candidates: []resolver.Candidate{
			{Selector: `input[name="email"]`, Strategy: "attribute", Description: "email input by name"},
			{Selector: `input[type="email"]`, Strategy: "attribute", Description: "email input by type"},
			{Selector: `form input[autocomplete="email"]`, Strategy: "structural", Description: "autocomplete email inside a form"},
		},
	}
}

func passwordFieldIntent() resolver.Intent {
	return resolver.Intent{
		Name: "password field",
		Candidates: []resolver.Candidate{
			{Selector: `input[name="password"]`, Strategy: "attribute", Description: "password input by name"},
			{Selector: `input[type="password"]`, Strategy: "attribute", Description: "password input by type"},
		},
	}
}

func signupSubmitIntent() resolver.Intent {
	return resolver.Intent{
		Name: "signup submit button",
		Text: "Sign up",
		Candidates: []resolver.Candidate{
			{Selector: `button[type="submit"]`, Strategy: "role", Description: "form submit button"},
			{Selector: `form [role="button"]`, Strategy: "role", Description: "button role inside form"},
		},
	}
}

func loginSubmitIntent() resolver.Intent {
	return resolver.Intent{
		Name: "login submit button",
		Text: "Sign in",
		Candidates: []resolver.Candidate{
			{Selector: `button[type="submit"]`, Strategy: "role", Description: "form submit button"},
			{Selector: `form [role="button"]`, Strategy: "role", Description: "button role inside form"},
		},
	}
}

func onboardingAdvanceIntent() resolver.Intent {
	return resolver.Intent{
		Name: "onboarding advance control",
		Text: "Continue",
		Candidates: []resolver.Candidate{
			{Selector: `[data-testid="t--get-started-button"]`, Strategy: "attribute", Description: "get started button"},
			{Selector: `[data-testid*="onboarding"] button`, Strategy: "structural", Description: "any button in the onboarding container"},
			{Selector: `.t--onboarding-container button`, Strategy: "structural", Description: "legacy onboarding container button"},
		},
	}
}

func onboardingSkipIntent() resolver.Intent {
	return resolver.Intent{
		Name: "onboarding skip control",
		Text: "Skip",
		Candidates: []resolver.Candidate{
			{Selector: `[data-testid*="skip"]`, Strategy: "attribute", Description: "skip control by testid"},
			{Selector: `a[href*="/applications"]`, Strategy: "structural", Description: "direct link out of onboarding"},
		},
	}
}

func importMenuIntent() resolver.Intent {
	return resolver.Intent{
		Name: "workspace action menu",
		Text: "Create new",
		Candidates: []resolver.Candidate{
			{Selector: `[data-testid="t--workspace-action-btn"]`, Strategy: "attribute", Description: "workspace action button"},
			{Selector: `.t--new-button`, Strategy: "structural", Description: "legacy new-app button"},
		},
	}
}

func importOptionIntent() resolver.Intent {
	return resolver.Intent{
		Name: "import menu option",
		Text: "Import",
		Candidates: []resolver.Candidate{
			{Selector: `[data-testid="t--workspace-import-app"]`, Strategy: "attribute", Description: "import option by testid"},
			{Selector: `[role="menuitem"][data-testid*="import"]`, Strategy: "role", Description: "import menu item"},
		},
	}
}

func importFileInputIntent() resolver.Intent {
	return resolver.Intent{
		Name: "bundle file input",
		Candidates: []resolver.Candidate{
			{Selector: `input[type="file"][accept*="json"]`, Strategy: "attribute", Description: "JSON file input"},
			{Selector: `input[type="file"]`, Strategy: "attribute", Description: "any file input"},
		},
	}
}

func datasourceURLIntent() resolver.Intent {
	return resolver.Intent{
		Name: "datasource url field",
		Candidates: []resolver.Candidate{
			{Selector: `input[name*="url"][data-testid*="datasource"]`, Strategy: "attribute", Description: "datasource url input"},
			{Selector: `[data-testid="t--datasource-modal"] input[type="text"]`, Strategy: "structural", Description: "text input in datasource modal"},
		},
	}
}

func datasourceSaveIntent() resolver.Intent {
	return resolver.Intent{
		Name: "datasource save button",
		Text: "Save",
		Candidates: []resolver.Candidate{
			{Selector: `[data-testid="t--datasource-save"]`, Strategy: "attribute", Description: "datasource save by testid"},
			{Selector: `[data-testid="t--datasource-modal"] button[type="submit"]`, Strategy: "structural", Description: "submit in datasource modal"},
		},
	}
}

func deployButtonIntent() resolver.Intent {
	return resolver.Intent{
		Name: "deploy button",
		Text: "Deploy",
		Candidates: []resolver.Candidate{
			{Selector: `[data-testid="t--application-publish-btn"]`, Strategy: "attribute", Description: "publish button by testid"},
			{Selector: `.t--application-publish-btn`, Strategy: "structural", Description: "legacy publish button class"},
		},
	}
}

func deployConfirmIntent() resolver.Intent {
	return resolver.Intent{
		Name: "deploy confirmation",
		Text: "Deploy",
		Candidates: []resolver.Candidate{
			{Selector: `[data-testid="t--deploy-popup-option"]`, Strategy: "attribute", Description: "deploy popup confirm"},
			{Selector: `[role="dialog"] button[type="submit"]`, Strategy: "role", Description: "submit inside dialog"},
		},
	}
}
