package seed

import "github.com/tendant/simple-site/pkg/sitecontent"

func ptr[T any](v T) *T { return &v }

// Default returns the content the Atlas landing page ships with.
func Default() Data {
	return Data{
		Hero: sitecontent.CreateHeroRequest{
			Title:              "Atlas: Where Code Meets Motion",
			Subtitle:           "Purpose",
			Description:        "The humanoid companion that learns and adapts alongside you.",
			CTAText:            "Request Access",
			CTALink:            "#get-access",
			BackgroundImage:    "/Header-background.webp",
			LottieAnimationURL: ptr("/loop-header.lottie"),
			HeroImage:          ptr("/lovable-uploads/5663820f-6c97-4492-9210-9eaa1a8dc415.png"),
			Order:              1,
		},
		Features: []sitecontent.CreateFeatureRequest{
			{
				Title:       "Adaptive Learning",
				Description: "Atlas learns from your interactions, continuously improving its responses and actions to better serve your needs.",
				IconSVG:     `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M12 2a10 10 0 1 0 10 10 4 4 0 1 1-4-4"></path><path d="M12 8a4 4 0 1 0 4 4"></path><circle cx="12" cy="12" r="1"></circle></svg>`,
				Category:    "intelligence",
				Order:       1,
			},
			{
				Title:       "Natural Interaction",
				Description: "Communicate using natural language and gestures. Atlas understands context and responds appropriately.",
				IconSVG:     `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M14.5 2H6a2 2 0 0 0-2 2v16a2 2 0 0 0 2 2h12a2 2 0 0 0 2-2V7.5L14.5 2z"></path><polyline points="14 2 14 8 20 8"></polyline><path d="M9 13v-1h6v1"></path><path d="M9.5 12 9 11H4"></path></svg>`,
				Category:    "interaction",
				Order:       2,
			},
			{
				Title:       "Precise Movement",
				Description: "Advanced motorized joints provide fluid, human-like movement with exceptional balance and coordination.",
				IconSVG:     `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><rect width="18" height="11" x="3" y="11" rx="2"></rect><circle cx="12" cy="5" r="2"></circle><path d="M12 7v4"></path><line x1="8" x2="8" y1="16" y2="16"></line><line x1="16" x2="16" y1="16" y2="16"></line></svg>`,
				Category:    "movement",
				Order:       3,
			},
			{
				Title:       "Spatial Awareness",
				Description: "Advanced sensors and mapping technology allow Atlas to navigate complex environments with ease.",
				IconSVG:     `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M21 16V8a2 2 0 0 0-1-1.73l-7-4a2 2 0 0 0-2 0l-7 4A2 2 0 0 0 3 8v8a2 2 0 0 0 1 1.73l7 4a2 2 0 0 0 2 0l7-4A2 2 0 0 0 21 16z"></path><polyline points="3.27 6.96 12 12.01 20.73 6.96"></polyline><line x1="12" x2="12" y1="22.08" y2="12"></line></svg>`,
				Category:    "sensors",
				Order:       4,
			},
			{
				Title:       "Enhanced Security",
				Description: "Built-in protocols protect your data and privacy, while physical safeguards ensure safe operation.",
				IconSVG:     `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M12 22s8-4 8-10V5l-8-3-8 3v7c0 6 8 10 8 10"></path><path d="m14.5 9-5 5"></path><path d="m9.5 9 5 5"></path></svg>`,
				Category:    "security",
				Order:       5,
			},
			{
				Title:       "Task Assistance",
				Description: "From simple reminders to complex multi-step tasks, Atlas can assist with a wide range of activities.",
				IconSVG:     `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M16 6H3v11a1 1 0 0 0 1 1h14a1 1 0 0 0 1-1V9a1 1 0 0 0-1-1h-2"></path><path d="M8 6V4a1 1 0 0 1 1-1h6a1 1 0 0 1 1 1v2"></path><line x1="12" x2="12" y1="11" y2="15"></line><line x1="10" x2="14" y1="13" y2="13"></line></svg>`,
				Category:    "assistance",
				Order:       6,
			},
		},
		Testimonials: []sitecontent.CreateTestimonialRequest{
			{
				Content:         "Atlas transformed our production line, handling repetitive tasks while our team focuses on innovation. 30% increase in output within three months.",
				Author:          "Sarah Chen",
				Role:            "VP of Operations",
				Company:         "Axion Manufacturing",
				Gradient:        "from-blue-700 via-indigo-800 to-purple-900",
				BackgroundImage: "/background-section1.png",
				Order:           1,
			},
			{
				Content:         "Implementing Atlas in our fulfillment centers reduced workplace injuries by 40% while improving order accuracy. The learning capabilities are remarkable.",
				Author:          "Michael Rodriguez",
				Role:            "Director of Logistics",
				Company:         "GlobalShip",
				Gradient:        "from-indigo-900 via-purple-800 to-orange-500",
				BackgroundImage: "/background-section2.png",
				Order:           2,
			},
			{
				Content:         "Atlas adapted to our lab protocols faster than any system we've used. It's like having another researcher who never gets tired and maintains perfect precision.",
				Author:          "Dr. Amara Patel",
				Role:            "Lead Scientist",
				Company:         "BioAdvance Research",
				Gradient:        "from-purple-800 via-pink-700 to-red-500",
				BackgroundImage: "/background-section3.png",
				Order:           3,
			},
			{
				Content:         "As a mid-size business, we never thought advanced robotics would be accessible to us. Atlas changed that equation entirely with its versatility and ease of deployment.",
				Author:          "Jason Lee",
				Role:            "CEO",
				Company:         "Innovative Solutions Inc.",
				Gradient:        "from-orange-600 via-red-500 to-purple-600",
				BackgroundImage: "/background-section1.png",
				Order:           4,
			},
		},
		ProcessSteps: []sitecontent.CreateProcessStepRequest{
			{
				Number:      "01",
				Title:       "Request Access",
				Description: "Fill out the application form to join our early access program and secure your spot in line.",
				ImageURL:    "https://images.unsplash.com/photo-1485827404703-89b55fcc595e?auto=format&fit=crop&w=800&q=80",
				Order:       1,
			},
			{
				Number:      "02",
				Title:       "Personalization",
				Description: "We'll work with you to customize Atlas to your specific needs and preferences.",
				ImageURL:    "https://images.unsplash.com/photo-1526374965328-7f61d4dc18c5?auto=format&fit=crop&w=800&q=80",
				Order:       2,
			},
			{
				Number:      "03",
				Title:       "Integration",
				Description: "Atlas arrives at your location and is integrated into your living or working environment.",
				ImageURL:    "https://images.unsplash.com/photo-1485827404703-89b55fcc595e?auto=format&fit=crop&w=800&q=80",
				Order:       3,
			},
			{
				Number:      "04",
				Title:       "Adaptation",
				Description: "Through daily interaction, Atlas learns and adapts to your routines, preferences, and needs.",
				ImageURL:    "https://images.unsplash.com/photo-1526374965328-7f61d4dc18c5?auto=format&fit=crop&w=800&q=80",
				Order:       4,
			},
		},
		Specifications: []sitecontent.CreateSpecificationRequest{
			{
				SectionTitle:    "Specs",
				SectionSubtitle: "Technical Specifications",
				Content:         "Atlas works with your team, not instead of it. By handling repetitive tasks, improving safety conditions, and learning from every interaction, Atlas helps humans focus on what they do best: create, solve, and innovate.",
				SectionNumber:   "3",
				BackgroundImage: ptr("/text-mask-image.jpg"),
				Order:           1,
			},
		},
		Navigation: []sitecontent.CreateNavigationItemRequest{
			{Label: "Home", Href: "#", Order: 1},
			{Label: "About", Href: "#features", Order: 2},
			{Label: "Contact", Href: "#details", Order: 3},
		},
		Footer: []sitecontent.CreateFooterSectionRequest{
			{
				Title:       "About Atlas",
				Content:     "The humanoid companion that learns and adapts alongside you.",
				SectionType: "about",
				Order:       1,
			},
			{
				Title:       "Contact",
				Content:     "Get in touch with us for more information.",
				SectionType: "contact",
				Links: []sitecontent.FooterLink{
					{Text: "Email", URL: "mailto:info@atlas-robot.com"},
					{Text: "Phone", URL: "tel:+1234567890"},
				},
				Order: 2,
			},
			{
				Title:       "Social",
				Content:     "Follow us on social media.",
				SectionType: "social",
				Links: []sitecontent.FooterLink{
					{Text: "Twitter", URL: "https://twitter.com/atlas-robot"},
					{Text: "LinkedIn", URL: "https://linkedin.com/company/atlas-robot"},
				},
				Order: 3,
			},
		},
		SiteSettings: sitecontent.CreateSiteSettingsRequest{
			SiteTitle:       "Atlas Robot - Where Code Meets Motion",
			SiteDescription: "The humanoid companion that learns and adapts alongside you.",
			LogoURL:         "/logo.svg",
			FaviconURL:      "/favicon.ico",
			PrimaryColor:    "#FE5C02",
			SecondaryColor:  "#6366F1",
			ContactEmail:    "info@atlas-robot.com",
			ContactPhone:    ptr("+1234567890"),
			SocialLinks: map[string]string{
				"twitter":  "https://twitter.com/atlas-robot",
				"linkedin": "https://linkedin.com/company/atlas-robot",
				"github":   "https://github.com/atlas-robot",
			},
			SEOKeywords: []string{"humanoid robot", "AI companion", "robotics", "automation", "artificial intelligence"},
		},
	}
}
