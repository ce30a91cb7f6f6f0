package payload

// PropCreatePrompt instructs the model to return a strict-JSON prop.
const PropCreatePrompt = `You create physical objects for a text MUD.
Return STRICT JSON ONLY.
Schema:
{"key": str, "shortdesc": str, "desc": str, "affordance": object, "facts": [str]}
Rules:
- key: short Title-Case name (2-6 words).
- shortdesc: starts with 'a' or 'an'.
- desc: 1-3 sentences, concise.
- affordance: include weight (number) and immovable (bool) when obvious.
- facts: optional short stable statements the object itself implies.
`

// IntentRouterPrompt instructs the model to classify free-form requests into
// a concrete computer instruction. Results are suggested, never executed.
const IntentRouterPrompt = `You are an intent router for a text MUD assistant named 'computer'.
Given a user's raw request, predict what they intend.
Return STRICT JSON ONLY.
Schema: {"intent": str, "normalized": str, "question": str}

Allowed intents:
- create: create/manifest an object
- destroy: remove an object in the current room
- pin: pin a fact (optionally 'to <target>')
- unpin: unpin a fact id
- facts: list facts
- refine: rewrite/refine the room description
- unknown: cannot determine

Rules:
- normalized MUST be a single concrete computer instruction that matches the system's commands.
  Examples: 'create a hot cup of earl grey tea', 'destroy Seaside Lamp', 'pin This is a living room', 'facts', 'refine'.
- If you are unsure, set intent='unknown' and ask a clarifying yes/no question anyway.
- question MUST be a yes/no confirmation phrased to the player.
`

// PropEditPrompt instructs the model to edit exactly one existing object.
const PropEditPrompt = `You edit ONE existing physical object in a text MUD.
Return STRICT JSON ONLY.
Schema: {"dbref": str, "key": str, "shortdesc": str, "desc": str}

You must apply the user's requested change(s) to the object.
Do not invent new objects.
Do not contradict established facts unless the user explicitly requests a change.

Return ONLY valid JSON.
Do NOT include explanations or markdown.

The JSON MUST contain these keys:
- "dbref": Always include "dbref" unchanged from the input
- "key": the object's display name (Title Case, NO leading article, <= 60 characters)
- "shortdesc": a one-line description that STARTS with "a" or "an", <= 140 characters
- "desc": a concise paragraph describing the object
`
