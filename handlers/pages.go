package handlers

import (
	"checkquest/app"
	"checkquest/config"
	"checkquest/services"
	"checkquest/templates/pages"
	"checkquest/utils"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

func render(c *fiber.Ctx, component templ.Component) error {
	c.Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.UserContext(), c.Response().BodyWriter())
}

// HomePage serves the application shell
func HomePage(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, pages.Shell(pages.ShellProps{
			AppName:        config.AppConfig.AppName,
			ThemeColor:     config.AppConfig.ThemeColor,
			GoogleClientID: config.AppConfig.GoogleClientID,
			Env:            config.AppConfig.Env,
			MainScript:     utils.GetMainScript(a.Logger),
		}))
	}
}

// OfflinePage is the fallback the service worker shows for failed navigations
func OfflinePage(c *fiber.Ctx) error {
	return render(c, pages.Offline(config.AppConfig.AppName, config.AppConfig.ThemeColor))
}

// WebManifest serves the PWA manifest
func WebManifest(c *fiber.Ctx) error {
	c.Set("Cache-Control", "public, max-age=3600")
	body, err := json.Marshal(utils.BuildWebManifest(config.AppConfig))
	if err != nil {
		return serverErrorWithDetails(c, "Failed to build manifest", err)
	}
	c.Set("Content-Type", "application/manifest+json")
	return c.Send(body)
}

// Precache lists the URLs the service worker caches on install
func Precache(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return success(c, fiber.Map{"assets": utils.PrecacheList(a.Logger)})
	}
}

const serviceWorkerSource = `const CACHE = "checkquest-__VERSION__";
const PRECACHE = __PRECACHE__;
const OFFLINE_URL = "/offline";

const QUEUE_DB = "checkquest-offline";
const QUEUE_STORE = "mutations";
const SYNC_TAG = "__SYNC_TAG__";
const REPLAY_URL = "__REPLAY_URL__";
const REPLAY_BATCH = __REPLAY_BATCH__;

// Writes that are queued and replayed when the network is back.
const QUEUED_ROUTES = [
  { method: "POST", pattern: /^\/api\/entries$/, type: "__TYPE_ENTRY__" },
  { method: "PATCH", pattern: /^\/api\/action-plans\/[^/]+$/, type: "__TYPE_PLAN__" },
];

function openQueue() {
  return new Promise((resolve, reject) => {
    const req = indexedDB.open(QUEUE_DB, 1);
    req.onupgradeneeded = () => req.result.createObjectStore(QUEUE_STORE, { keyPath: "seq", autoIncrement: true });
    req.onsuccess = () => resolve(req.result);
    req.onerror = () => reject(req.error);
  });
}

function withQueue(mode, fn) {
  return openQueue().then((db) => new Promise((resolve, reject) => {
    const tx = db.transaction(QUEUE_STORE, mode);
    const req = fn(tx.objectStore(QUEUE_STORE));
    tx.oncomplete = () => { db.close(); resolve(req ? req.result : undefined); };
    tx.onerror = () => { db.close(); reject(tx.error); };
  }));
}

function notifyClients(message) {
  return self.clients.matchAll({ includeUncontrolled: true })
    .then((all) => all.forEach((client) => client.postMessage(message)));
}

function requestReplay() {
  if (self.registration.sync) {
    return self.registration.sync.register(SYNC_TAG).catch(() => undefined);
  }
  return Promise.resolve();
}

async function sendOrQueue(request, route) {
  const body = await request.clone().text();
  try {
    return await fetch(request);
  } catch (err) {
    const payload = body ? JSON.parse(body) : {};
    const id = payload.client_mutation_id || self.crypto.randomUUID();
    await withQueue("readwrite", (store) => store.add({
      id: id,
      type: route.type,
      url: new URL(request.url).pathname,
      payload: payload,
    }));
    await requestReplay();
    await notifyClients({ type: "queued", id: id });
    return new Response(JSON.stringify({ queued: true, id: id }), {
      status: 202,
      headers: { "Content-Type": "application/json" },
    });
  }
}

// replayQueue drains the queue oldest first. A network or auth failure
// leaves the rest queued and rejects so background sync retries later.
async function replayQueue() {
  const pending = await withQueue("readonly", (store) => store.getAll());
  for (let i = 0; i < pending.length; i += REPLAY_BATCH) {
    const batch = pending.slice(i, i + REPLAY_BATCH);
    const resp = await fetch(REPLAY_URL, {
      method: "POST",
      credentials: "same-origin",
      headers: { "Content-Type": "application/json", "X-Request-ID": "replay-" + batch[0].id },
      body: JSON.stringify({
        mutations: batch.map((m) => ({ id: m.id, type: m.type, url: m.url, payload: m.payload })),
      }),
    });
    if (!resp.ok) {
      throw new Error("replay rejected with status " + resp.status);
    }
    const data = await resp.json();
    await withQueue("readwrite", (store) => { batch.forEach((m) => store.delete(m.seq)); });
    await notifyClients({ type: "replayed", results: data.results });
  }
}

self.addEventListener("install", (event) => {
  event.waitUntil(caches.open(CACHE).then((cache) => cache.addAll(PRECACHE)));
  self.skipWaiting();
});

self.addEventListener("activate", (event) => {
  event.waitUntil(
    caches.keys().then((keys) => Promise.all(keys.filter((k) => k !== CACHE).map((k) => caches.delete(k))))
  );
  self.clients.claim();
});

self.addEventListener("fetch", (event) => {
  const req = event.request;
  const path = new URL(req.url).pathname;
  const route = QUEUED_ROUTES.find((r) => r.method === req.method && r.pattern.test(path));
  if (route) {
    event.respondWith(sendOrQueue(req, route));
    return;
  }
  if (req.method !== "GET" || path.startsWith("/api/")) {
    return;
  }
  if (req.mode === "navigate") {
    event.respondWith(fetch(req).catch(() => caches.match(OFFLINE_URL)));
    return;
  }
  event.respondWith(caches.match(req).then((hit) => hit || fetch(req)));
});

self.addEventListener("sync", (event) => {
  if (event.tag === SYNC_TAG) {
    event.waitUntil(replayQueue());
  }
});

// Browsers without background sync ask for a replay when they come online.
self.addEventListener("message", (event) => {
  if (event.data && event.data.type === "replay") {
    event.waitUntil(replayQueue().catch(() => undefined));
  }
});

self.addEventListener("push", (event) => {
  const data = event.data ? event.data.json() : {};
  event.waitUntil(
    self.registration.showNotification(data.title || "CheckQuest", {
      body: data.body,
      tag: data.tag,
      icon: data.icon,
      badge: data.badge,
      data: { url: data.url || "/" },
    })
  );
});

self.addEventListener("notificationclick", (event) => {
  event.notification.close();
  event.waitUntil(self.clients.openWindow(event.notification.data.url));
});
`

const (
	// replaySyncTag names the background sync registration that drains the queue
	replaySyncTag = "checkquest-replay"
	// maxReplayBatch matches the mutation limit of POST /api/sync/replay
	maxReplayBatch = 100
)

// ServiceWorker serves the worker script with the current precache list.
// The cache name follows the list so a new build evicts old assets.
func ServiceWorker(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		assets := utils.PrecacheList(a.Logger)
		list, err := json.Marshal(assets)
		if err != nil {
			return serverErrorWithDetails(c, "Failed to build service worker", err)
		}

		script := strings.NewReplacer(
			"__VERSION__", cacheVersion(assets),
			"__PRECACHE__", string(list),
			"__SYNC_TAG__", replaySyncTag,
			"__REPLAY_URL__", "/api/sync/replay",
			"__REPLAY_BATCH__", strconv.Itoa(maxReplayBatch),
			"__TYPE_ENTRY__", services.MutationEntrySubmit,
			"__TYPE_PLAN__", services.MutationActionPlanUpdate,
		).Replace(serviceWorkerSource)

		c.Set("Content-Type", "application/javascript; charset=utf-8")
		c.Set("Cache-Control", "no-cache")
		c.Set("Service-Worker-Allowed", "/")
		return c.SendString(script)
	}
}

// cacheVersion hashes the asset list
func cacheVersion(assets []string) string {
	h := fnv.New32a()
	for _, a := range assets {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func ServerTime(c *fiber.Ctx) error {
	timezone := c.Query("timezone", "UTC")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	now := time.Now().In(loc)

	return c.JSON(fiber.Map{
		"timestamp": now.Unix(),
		"timezone":  loc.String(),
		"iso":       now.Format(time.RFC3339),
	})
}
